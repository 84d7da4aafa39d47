package ledger

import (
	"github.com/shopspring/decimal"

	"finapi/models"
)

// Balance folds a user's statements into their current balance.
//
// Amounts are stored as magnitudes: deposits add, withdrawals subtract,
// and transfer rows subtract as stored (+amount on the sender's row,
// -amount on the receiver's, so the receiver nets a credit). The SQL
// aggregate in the gorm store must keep the same convention.
func Balance(statements []models.Statement) decimal.Decimal {
	total := decimal.Zero
	for _, s := range statements {
		if s.Type == models.OperationDeposit {
			total = total.Add(s.Amount)
		} else {
			total = total.Sub(s.Amount)
		}
	}
	return total
}
