package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"finapi/models"
)

// GormStore is the Postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (g *GormStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (g *GormStore) CreateStatement(ctx context.Context, in CreateStatementInput) (*models.Statement, error) {
	st := models.Statement{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		SenderID:    in.SenderID,
		Type:        in.Type,
		Amount:      in.Amount,
		Description: in.Description,
	}
	if err := g.db.WithContext(ctx).Create(&st).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

func (g *GormStore) FindStatement(ctx context.Context, userID, statementID string) (*models.Statement, error) {
	var st models.Statement
	err := g.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", statementID, userID).
		First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStatementNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (g *GormStore) ListStatements(ctx context.Context, userID string) ([]models.Statement, error) {
	// non-nil so an empty history serializes as [] rather than null
	statements := make([]models.Statement, 0)
	err := g.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&statements).Error
	if err != nil {
		return nil, err
	}
	return statements, nil
}

// SumAmounts computes the balance in SQL with the same sign convention as
// Balance: deposits add, everything else subtracts as stored.
func (g *GormStore) SumAmounts(ctx context.Context, userID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := g.db.WithContext(ctx).
		Model(&models.Statement{}).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE -amount END), 0)", models.OperationDeposit).
		Where("user_id = ?", userID).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// LockUser takes a FOR UPDATE row lock on the user, serializing every
// check-then-write sequence against that account for the duration of the
// surrounding transaction. Calling it outside Atomically is a bug.
func (g *GormStore) LockUser(ctx context.Context, userID string) error {
	var user models.User
	err := g.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lock user %s: %w", userID, ErrUserNotFound)
	}
	return err
}

func (g *GormStore) Atomically(ctx context.Context, fn func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

var _ Store = (*GormStore)(nil)
