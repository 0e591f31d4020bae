package handler_test

import (
	"fmt"
	"net/http"
	"testing"
)

func TestCreateAccount_ReturnsBalance(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ana", "ana@example.com", "secret1")

	w := env.do(t, http.MethodPost, "/api/account", token, map[string]interface{}{
		"name":    "Cash",
		"balance": 100,
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, http.StatusCreated, w.Body.String())
	}
	account := data(t, w)["account"].(map[string]interface{})
	if account["balance"] != "100.00" {
		t.Errorf("balance = %v, want 100.00", account["balance"])
	}
	if account["balance_cent"] != float64(10000) {
		t.Errorf("balance_cent = %v, want 10000", account["balance_cent"])
	}
}

func TestCreateAccount_MissingFields(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ana", "ana@example.com", "secret1")

	for _, body := range []map[string]interface{}{
		{"balance": 100},  // no name
		{"name": "Cash"},  // no balance
		{"name": "   ", "balance": 100},
	} {
		w := env.do(t, http.MethodPost, "/api/account", token, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("create %v: status = %d, want %d", body, w.Code, http.StatusBadRequest)
		}
	}
}

func TestCreateAccount_ZeroBalanceAllowed(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ana", "ana@example.com", "secret1")

	w := env.do(t, http.MethodPost, "/api/account", token, map[string]interface{}{
		"name":    "Empty",
		"balance": 0,
	})
	if w.Code != http.StatusCreated {
		t.Errorf("zero balance: status = %d, want %d, body = %s", w.Code, http.StatusCreated, w.Body.String())
	}
}

func TestListAccounts_OnlyOwn(t *testing.T) {
	env := newTestEnv(t)
	tokenA := env.signup(t, "Ana", "ana@example.com", "secret1")
	tokenB := env.signup(t, "Ben", "ben@example.com", "secret1")

	env.createAccount(t, tokenA, "Cash", 100)
	env.createAccount(t, tokenA, "Bank", 200)
	env.createAccount(t, tokenB, "Wallet", 50)

	w := env.do(t, http.MethodGet, "/api/account", tokenA, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	accounts := data(t, w)["accounts"].([]interface{})
	if len(accounts) != 2 {
		t.Fatalf("len(accounts) = %d, want 2", len(accounts))
	}
	for _, a := range accounts {
		name := a.(map[string]interface{})["name"]
		if name != "Cash" && name != "Bank" {
			t.Errorf("unexpected account %v in Ana's list", name)
		}
	}
}

func TestUpdateAccount(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ana", "ana@example.com", "secret1")
	id := env.createAccount(t, token, "Cash", 100)

	w := env.do(t, http.MethodPut, fmt.Sprintf("/api/account/%d", id), token, map[string]interface{}{
		"name":    "Cash v2",
		"balance": "250.50",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	account := data(t, w)["account"].(map[string]interface{})
	if account["name"] != "Cash v2" {
		t.Errorf("name = %v, want Cash v2", account["name"])
	}
	if account["balance"] != "250.50" {
		t.Errorf("balance = %v, want 250.50", account["balance"])
	}
}

func TestAccountIsolation_ForeignIDsAre404(t *testing.T) {
	env := newTestEnv(t)
	tokenA := env.signup(t, "Ana", "ana@example.com", "secret1")
	tokenB := env.signup(t, "Ben", "ben@example.com", "secret1")
	id := env.createAccount(t, tokenA, "Cash", 100)

	w := env.do(t, http.MethodPut, fmt.Sprintf("/api/account/%d", id), tokenB, map[string]interface{}{
		"name":    "Hijacked",
		"balance": 0,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign update: status = %d, want %d", w.Code, http.StatusNotFound)
	}

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/account/%d", id), tokenB, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign delete: status = %d, want %d", w.Code, http.StatusNotFound)
	}

	// untouched
	if got := env.balanceCent(t, id); got != 10000 {
		t.Errorf("balance after foreign attempts = %d, want 10000", got)
	}
}

func TestDeleteAccount_CascadesTransactions(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ana", "ana@example.com", "secret1")
	accountID := env.createAccount(t, token, "Cash", 100)
	categoryID := env.createCategory(t, token, "Food")
	txID := env.createTransaction(t, token, accountID, categoryID, "expense", 30)

	w := env.do(t, http.MethodDelete, fmt.Sprintf("/api/account/%d", accountID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete account: status = %d, body = %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/transactions/%d", txID), token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("transaction survived account deletion: status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
