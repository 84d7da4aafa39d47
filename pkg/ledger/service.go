// Package ledger implements the accounting core: deposits, withdrawals,
// peer-to-peer transfers, balance derivation and statement lookup.
//
// Statements are append-only; balance is always derived by folding them
// (see Balance). Withdraw and the debit side of Transfer lock the
// account row inside a store transaction so that two concurrent
// withdrawals cannot both pass the funds check.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finapi/models"
)

// OperationRecorded is emitted (best-effort) after a statement is
// durably committed.
type OperationRecorded struct {
	StatementID string          `json:"statement_id"`
	UserID      string          `json:"user_id"`
	SenderID    *string         `json:"sender_id,omitempty"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Publisher publishes ledger events to an external broker. Pass nil to
// the service if no events should be emitted.
type Publisher interface {
	Publish(ctx context.Context, event OperationRecorded) error
}

// Service validates and records monetary operations against a Store.
type Service struct {
	store  Store
	pub    Publisher
	logger *zap.Logger
}

func NewService(store Store, pub Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, pub: pub, logger: logger}
}

// Deposit records a credit on the user's account.
func (s *Service) Deposit(ctx context.Context, userID string, amount decimal.Decimal, description string) (*models.Statement, error) {
	if _, err := s.findUser(ctx, userID, ErrUserNotFound); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	st, err := s.store.CreateStatement(ctx, CreateStatementInput{
		UserID:      userID,
		Type:        models.OperationDeposit,
		Amount:      amount,
		Description: description,
	})
	if err != nil {
		return nil, fmt.Errorf("create deposit statement: %w", err)
	}
	s.logger.Info("deposit recorded",
		zap.String("user_id", userID),
		zap.String("statement_id", st.ID),
		zap.String("amount", amount.String()))
	s.publish(st)
	return st, nil
}

// Withdraw records a debit on the user's account. The funds check and the
// insert run under a per-account lock inside one transaction.
func (s *Service) Withdraw(ctx context.Context, userID string, amount decimal.Decimal, description string) (*models.Statement, error) {
	if _, err := s.findUser(ctx, userID, ErrUserNotFound); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	var st *models.Statement
	err := s.store.Atomically(ctx, func(tx Store) error {
		if err := tx.LockUser(ctx, userID); err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		balance, err := tx.SumAmounts(ctx, userID)
		if err != nil {
			return fmt.Errorf("sum amounts: %w", err)
		}
		if balance.LessThan(amount) {
			return ErrInsufficientFunds
		}
		st, err = tx.CreateStatement(ctx, CreateStatementInput{
			UserID:      userID,
			Type:        models.OperationWithdraw,
			Amount:      amount,
			Description: description,
		})
		if err != nil {
			return fmt.Errorf("create withdraw statement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("withdraw recorded",
		zap.String("user_id", userID),
		zap.String("statement_id", st.ID),
		zap.String("amount", amount.String()))
	s.publish(st)
	return st, nil
}

// Transfer moves amount from sender to receiver as two linked statements:
// +amount on the sender's account, -amount on the receiver's, both with
// SenderID set to the sender. Both rows are written in one transaction;
// the sender's record is returned first.
func (s *Service) Transfer(ctx context.Context, senderID, receiverID string, amount decimal.Decimal, description string) ([]models.Statement, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if _, err := s.findUser(ctx, senderID, ErrSenderNotFound); err != nil {
		return nil, err
	}
	if _, err := s.findUser(ctx, receiverID, ErrReceiverNotFound); err != nil {
		return nil, err
	}
	var out []models.Statement
	err := s.store.Atomically(ctx, func(tx Store) error {
		if err := tx.LockUser(ctx, senderID); err != nil {
			return fmt.Errorf("lock sender: %w", err)
		}
		balance, err := tx.SumAmounts(ctx, senderID)
		if err != nil {
			return fmt.Errorf("sum amounts: %w", err)
		}
		if balance.LessThan(amount) {
			return ErrInsufficientFunds
		}
		sid := senderID
		debit, err := tx.CreateStatement(ctx, CreateStatementInput{
			UserID:      senderID,
			SenderID:    &sid,
			Type:        models.OperationTransfer,
			Amount:      amount,
			Description: description,
		})
		if err != nil {
			return fmt.Errorf("create sender statement: %w", err)
		}
		credit, err := tx.CreateStatement(ctx, CreateStatementInput{
			UserID:      receiverID,
			SenderID:    &sid,
			Type:        models.OperationTransfer,
			Amount:      amount.Neg(),
			Description: description,
		})
		if err != nil {
			// The rollback keeps the ledger consistent, but a half-written
			// transfer reaching this point is never routine: report it loudly.
			s.logger.Error("transfer credit write failed, rolling back debit",
				zap.String("sender_id", senderID),
				zap.String("receiver_id", receiverID),
				zap.Error(err))
			return fmt.Errorf("create receiver statement: %w", err)
		}
		out = []models.Statement{*debit, *credit}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("transfer recorded",
		zap.String("sender_id", senderID),
		zap.String("receiver_id", receiverID),
		zap.String("amount", amount.String()))
	s.publish(&out[0])
	s.publish(&out[1])
	return out, nil
}

// GetBalance returns the user's current balance together with all of
// their statements in creation order.
func (s *Service) GetBalance(ctx context.Context, userID string) (decimal.Decimal, []models.Statement, error) {
	if _, err := s.findUser(ctx, userID, ErrUserNotFound); err != nil {
		return decimal.Zero, nil, err
	}
	statements, err := s.store.ListStatements(ctx, userID)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("list statements: %w", err)
	}
	return Balance(statements), statements, nil
}

// GetStatementOperation returns one statement, scoped to the owning
// account: an id that exists but belongs to another user reports
// ErrStatementNotFound rather than leaking the row.
func (s *Service) GetStatementOperation(ctx context.Context, userID, statementID string) (*models.Statement, error) {
	if _, err := s.findUser(ctx, userID, ErrUserNotFound); err != nil {
		return nil, err
	}
	st, err := s.store.FindStatement(ctx, userID, statementID)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) findUser(ctx context.Context, id string, notFound error) (*models.User, error) {
	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	if user == nil {
		return nil, notFound
	}
	return user, nil
}

// publish is best-effort: the statement is already committed, so a broker
// failure is logged and absorbed rather than failing the operation.
func (s *Service) publish(st *models.Statement) {
	if s.pub == nil {
		return
	}
	go func(st models.Statement) {
		evt := OperationRecorded{
			StatementID: st.ID,
			UserID:      st.UserID,
			SenderID:    st.SenderID,
			Type:        string(st.Type),
			Amount:      st.Amount,
			OccurredAt:  st.CreatedAt,
		}
		if err := s.pub.Publish(context.Background(), evt); err != nil {
			s.logger.Warn("failed to publish operation event",
				zap.String("statement_id", st.ID), zap.Error(err))
		}
	}(*st)
}
