package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"finapi/models"
	"finapi/pkg/ledger"
)

func amt(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestBalanceFoldConvention(t *testing.T) {
	sender := "sender-id"
	statements := []models.Statement{
		{Type: models.OperationDeposit, Amount: amt("900")},
		{Type: models.OperationWithdraw, Amount: amt("100")},
		// sender side of a transfer: stored positive, subtracts
		{Type: models.OperationTransfer, Amount: amt("300"), SenderID: &sender},
		// receiver side: stored negated, so subtracting nets a credit
		{Type: models.OperationTransfer, Amount: amt("-50"), SenderID: &sender},
	}
	got := ledger.Balance(statements)
	if !got.Equal(amt("550")) {
		t.Fatalf("expected 550 got %s", got)
	}
}

func TestBalanceEmptyIsZero(t *testing.T) {
	if got := ledger.Balance(nil); !got.IsZero() {
		t.Fatalf("expected 0 got %s", got)
	}
}

func TestBalanceOrderIndependent(t *testing.T) {
	statements := []models.Statement{
		{Type: models.OperationDeposit, Amount: amt("10.50")},
		{Type: models.OperationWithdraw, Amount: amt("0.50")},
		{Type: models.OperationDeposit, Amount: amt("5")},
	}
	reversed := []models.Statement{statements[2], statements[1], statements[0]}
	if !ledger.Balance(statements).Equal(ledger.Balance(reversed)) {
		t.Fatalf("fold must be order independent")
	}
}
