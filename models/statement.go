package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationType classifies a statement.
type OperationType string

const (
	OperationDeposit  OperationType = "deposit"
	OperationWithdraw OperationType = "withdraw"
	OperationTransfer OperationType = "transfer"
)

// Statement is one immutable monetary movement on a user's account.
// Rows are append-only: created by the ledger service, never updated or
// deleted. Deposit and withdraw rows store the positive magnitude; a
// transfer stores +amount on the sender's row and -amount on the
// receiver's row, both carrying the sender's id in SenderID.
type Statement struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string          `gorm:"type:uuid;index;not null" json:"user_id"`
	SenderID    *string         `gorm:"type:uuid;index" json:"sender_id,omitempty"`
	Type        OperationType   `gorm:"size:16;not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Description string          `gorm:"size:255;not null" json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
