package ledger

import (
	"fmt"
	"testing"

	"github.com/soltonanna/personal-finance-tracker/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSignedAmount(t *testing.T) {
	testCases := []struct {
		txType string
		amount int64
		want   int64
	}{
		{TypeIncome, 3000, 3000},
		{TypeExpense, 3000, -3000},
		{TypeIncome, 0, 0},
		{TypeExpense, 1, -1},
	}

	for _, tc := range testCases {
		if got := SignedAmount(tc.txType, tc.amount); got != tc.want {
			t.Errorf("SignedAmount(%s, %d) = %d, want %d", tc.txType, tc.amount, got, tc.want)
		}
	}
}

func TestCreateDelta(t *testing.T) {
	if got := CreateDelta(TypeIncome, 3000); got != 3000 {
		t.Errorf("CreateDelta(income, 3000) = %d, want 3000", got)
	}
	if got := CreateDelta(TypeExpense, 3000); got != -3000 {
		t.Errorf("CreateDelta(expense, 3000) = %d, want -3000", got)
	}
}

// delta = new_signed - old_signed, for every type combination
func TestUpdateDelta_AllCombinations(t *testing.T) {
	testCases := []struct {
		oldType   string
		oldAmount int64
		newType   string
		newAmount int64
		want      int64
	}{
		{TypeIncome, 3000, TypeIncome, 5000, 2000},
		{TypeIncome, 3000, TypeExpense, 5000, -8000},
		{TypeExpense, 3000, TypeIncome, 5000, 8000},
		{TypeExpense, 3000, TypeExpense, 5000, -2000},
		{TypeIncome, 3000, TypeIncome, 3000, 0},
		{TypeExpense, 3000, TypeExpense, 3000, 0},
	}

	for _, tc := range testCases {
		got := UpdateDelta(tc.oldType, tc.oldAmount, tc.newType, tc.newAmount)
		if got != tc.want {
			t.Errorf("UpdateDelta(%s %d -> %s %d) = %d, want %d",
				tc.oldType, tc.oldAmount, tc.newType, tc.newAmount, got, tc.want)
		}
	}
}

// DeleteDelta must be the exact inverse of CreateDelta.
func TestDeleteDelta_ReversesCreate(t *testing.T) {
	for _, txType := range []string{TypeIncome, TypeExpense} {
		for _, amount := range []int64{1, 2500, 999999} {
			if got := CreateDelta(txType, amount) + DeleteDelta(txType, amount); got != 0 {
				t.Errorf("create+delete delta for %s %d = %d, want 0", txType, amount, got)
			}
		}
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:ledger-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}, &models.Account{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestApplyDelta_IncrementsInPlace(t *testing.T) {
	db := newTestDB(t)

	user := models.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	account := models.Account{UserID: user.ID, Name: "Cash", BalanceCent: 10000}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}

	steps := []struct {
		delta int64
		want  int64
	}{
		{-3000, 7000},
		{4550, 11550},
		{0, 11550}, // no-op
		{-11550, 0},
	}

	for _, s := range steps {
		if err := ApplyDelta(db, account.ID, s.delta); err != nil {
			t.Fatalf("ApplyDelta(%d): %v", s.delta, err)
		}
		var got models.Account
		if err := db.First(&got, account.ID).Error; err != nil {
			t.Fatalf("reload account: %v", err)
		}
		if got.BalanceCent != s.want {
			t.Errorf("after delta %d: balance = %d, want %d", s.delta, got.BalanceCent, s.want)
		}
	}
}

func TestApplyDelta_MissingAccount(t *testing.T) {
	db := newTestDB(t)

	if err := ApplyDelta(db, 12345, 100); err != gorm.ErrRecordNotFound {
		t.Errorf("ApplyDelta on missing account: err = %v, want gorm.ErrRecordNotFound", err)
	}
}
