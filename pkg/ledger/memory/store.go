// Package memory provides an in-memory ledger.Store backing the unit
// tests; nothing here survives a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finapi/models"
	"finapi/pkg/ledger"
)

// Store keeps users and statements in memory guarded by one mutex.
// Atomically serializes whole "transactions" with a second mutex and
// hands the callback a buffered view (txStore), so the rest of the store
// never observes a half-committed write.
type Store struct {
	mu         sync.Mutex
	txMu       sync.Mutex
	users      map[string]models.User
	statements []models.Statement
}

func NewStore() *Store {
	return &Store{users: make(map[string]models.User)}
}

// AddUser registers a user and returns its id.
func (m *Store) AddUser(name, email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	now := time.Now()
	m.users[id] = models.User{ID: id, Name: name, Email: email, CreatedAt: now, UpdatedAt: now}
	return id
}

func (m *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := u
	return &cp, nil
}

func newStatement(in ledger.CreateStatementInput) models.Statement {
	now := time.Now()
	return models.Statement{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		SenderID:    in.SenderID,
		Type:        in.Type,
		Amount:      in.Amount,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (m *Store) CreateStatement(ctx context.Context, in ledger.CreateStatementInput) (*models.Statement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := newStatement(in)
	m.statements = append(m.statements, st)
	return &st, nil
}

func (m *Store) FindStatement(ctx context.Context, userID, statementID string) (*models.Statement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.statements {
		if s.ID == statementID && s.UserID == userID {
			cp := s
			return &cp, nil
		}
	}
	return nil, ledger.ErrStatementNotFound
}

func (m *Store) ListStatements(ctx context.Context, userID string) ([]models.Statement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Statement, 0)
	for _, s := range m.statements {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Store) SumAmounts(ctx context.Context, userID string) (decimal.Decimal, error) {
	statements, err := m.ListStatements(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.Balance(statements), nil
}

// LockUser is a no-op: Atomically already holds txMu, which serializes
// every transactional sequence store-wide.
func (m *Store) LockUser(ctx context.Context, userID string) error {
	return nil
}

// Atomically runs fn against a buffered view of the store. Buffered
// writes reach m.statements in a single locked append on commit, so
// concurrent readers see either none or all of a transaction's rows
// (a transfer's debit/credit pair becomes visible together), and a
// rollback simply drops the buffer without disturbing rows appended
// outside the transaction.
func (m *Store) Atomically(ctx context.Context, fn func(tx ledger.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	tx := &txStore{parent: m}
	if err := fn(tx); err != nil {
		return err
	}
	m.mu.Lock()
	m.statements = append(m.statements, tx.pending...)
	m.mu.Unlock()
	return nil
}

// txStore is the view handed to Atomically callbacks. Reads see the
// parent's committed rows plus this transaction's own pending writes.
type txStore struct {
	parent  *Store
	pending []models.Statement
}

func (t *txStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return t.parent.FindUserByID(ctx, id)
}

func (t *txStore) CreateStatement(ctx context.Context, in ledger.CreateStatementInput) (*models.Statement, error) {
	st := newStatement(in)
	t.pending = append(t.pending, st)
	return &st, nil
}

func (t *txStore) FindStatement(ctx context.Context, userID, statementID string) (*models.Statement, error) {
	if st, err := t.parent.FindStatement(ctx, userID, statementID); err == nil {
		return st, nil
	}
	for _, s := range t.pending {
		if s.ID == statementID && s.UserID == userID {
			cp := s
			return &cp, nil
		}
	}
	return nil, ledger.ErrStatementNotFound
}

func (t *txStore) ListStatements(ctx context.Context, userID string) ([]models.Statement, error) {
	out, err := t.parent.ListStatements(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, s := range t.pending {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (t *txStore) SumAmounts(ctx context.Context, userID string) (decimal.Decimal, error) {
	statements, err := t.ListStatements(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.Balance(statements), nil
}

func (t *txStore) LockUser(ctx context.Context, userID string) error {
	return nil
}

// Atomically on an open transaction joins it rather than nesting.
func (t *txStore) Atomically(ctx context.Context, fn func(tx ledger.Store) error) error {
	return fn(t)
}

var (
	_ ledger.Store = (*Store)(nil)
	_ ledger.Store = (*txStore)(nil)
)
