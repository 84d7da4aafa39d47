package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"finapi/models"
)

// CreateStatementInput carries the fields of a statement to be recorded.
// The store assigns the id and timestamps.
type CreateStatementInput struct {
	UserID      string
	SenderID    *string
	Type        models.OperationType
	Amount      decimal.Decimal
	Description string
}

// Store is the persistence contract the ledger service works against.
//
// Atomically runs fn against a store bound to a single transaction; if fn
// returns an error nothing written inside it survives. LockUser is only
// meaningful inside Atomically: it serializes all check-then-write
// sequences against one account (row lock on the user row, or a
// store-wide mutex for the in-memory implementation).
type Store interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)

	CreateStatement(ctx context.Context, in CreateStatementInput) (*models.Statement, error)
	FindStatement(ctx context.Context, userID, statementID string) (*models.Statement, error)
	ListStatements(ctx context.Context, userID string) ([]models.Statement, error)
	SumAmounts(ctx context.Context, userID string) (decimal.Decimal, error)

	LockUser(ctx context.Context, userID string) error
	Atomically(ctx context.Context, fn func(tx Store) error) error
}
