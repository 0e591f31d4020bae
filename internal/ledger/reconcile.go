// Package ledger keeps account balances consistent with their transactions.
//
// Every account stores a running balance equal to the sum of its
// transactions' signed amounts. The functions here compute the signed delta a
// transaction mutation contributes and apply it to the stored balance with an
// in-place SQL increment. Callers must run the transaction mutation and
// ApplyDelta inside one gorm transaction so the pair commits atomically.
package ledger

import (
	"fmt"

	"github.com/soltonanna/personal-finance-tracker/internal/models"

	"gorm.io/gorm"
)

// Transaction types.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// SignedAmount applies a transaction type's sign to a magnitude:
// +amount for income, -amount for expense.
func SignedAmount(txType string, amountCent int64) int64 {
	if txType == TypeIncome {
		return amountCent
	}
	return -amountCent
}

// CreateDelta is the balance change from recording a new transaction.
func CreateDelta(txType string, amountCent int64) int64 {
	return SignedAmount(txType, amountCent)
}

// UpdateDelta is the balance change from rewriting a transaction's
// amount and/or type on the same account.
func UpdateDelta(oldType string, oldAmountCent int64, newType string, newAmountCent int64) int64 {
	return SignedAmount(newType, newAmountCent) - SignedAmount(oldType, oldAmountCent)
}

// DeleteDelta reverses a transaction's original contribution.
func DeleteDelta(txType string, amountCent int64) int64 {
	return -SignedAmount(txType, amountCent)
}

// ApplyDelta adds delta to the stored balance of the given account as a
// single in-place increment. Concurrent mutations on the same account
// serialize at the store instead of racing a read-modify-write.
func ApplyDelta(tx *gorm.DB, accountID uint, delta int64) error {
	if delta == 0 {
		return nil
	}
	res := tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		UpdateColumn("balance_cent", gorm.Expr("balance_cent + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("apply balance delta: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
