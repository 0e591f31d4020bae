package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soltonanna/personal-finance-tracker/internal/config"
	"github.com/soltonanna/personal-finance-tracker/internal/database"
	"github.com/soltonanna/personal-finance-tracker/internal/models"
	"github.com/soltonanna/personal-finance-tracker/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	db *gorm.DB
	r  *gin.Engine
}

// newTestEnv spins up the real API router over a fresh in-memory database.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:test-%s?mode=memory&cache=shared", uuid.NewString())
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
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: gin.TestMode},
		JWT:      config.JWTConfig{Secret: "test-secret", Issuer: "finance-tracker-test", ExpireHours: 1},
		Security: config.SecurityConfig{BcryptCost: bcrypt.MinCost},
		App:      config.AppSubConfig{PageSize: 50},
	}

	r := gin.New()
	router.RegisterAPI(r, cfg, db)

	return &testEnv{db: db, r: r}
}

// do issues a JSON request against the test router.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

// data decodes the success envelope's data object.
func data(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var envelope struct {
		Code int                    `json:"code"`
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return envelope.Data
}

// signup registers a user and logs them in, returning the bearer token.
func (e *testEnv) signup(t *testing.T, name, email, password string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", email, w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body = %s", email, w.Code, w.Body.String())
	}

	token, ok := data(t, w)["token"].(string)
	if !ok || token == "" {
		t.Fatalf("login %s: no token in response", email)
	}
	return token
}

func (e *testEnv) createAccount(t *testing.T, token, name string, balance interface{}) uint {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/account", token, map[string]interface{}{
		"name":    name,
		"balance": balance,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create account: status = %d, body = %s", w.Code, w.Body.String())
	}
	account := data(t, w)["account"].(map[string]interface{})
	return uint(account["id"].(float64))
}

func (e *testEnv) createCategory(t *testing.T, token, name string) uint {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/categories", token, map[string]interface{}{
		"name": name,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create category: status = %d, body = %s", w.Code, w.Body.String())
	}
	category := data(t, w)["category"].(map[string]interface{})
	return uint(category["id"].(float64))
}

func (e *testEnv) createTransaction(t *testing.T, token string, accountID, categoryID uint, txType string, amount interface{}) uint {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/transactions", token, map[string]interface{}{
		"account_id":  accountID,
		"category_id": categoryID,
		"type":        txType,
		"amount":      amount,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create transaction: status = %d, body = %s", w.Code, w.Body.String())
	}
	txn := data(t, w)["transaction"].(map[string]interface{})
	return uint(txn["id"].(float64))
}

// balanceCent reads the stored balance straight from the database.
func (e *testEnv) balanceCent(t *testing.T, accountID uint) int64 {
	t.Helper()

	var account models.Account
	if err := e.db.First(&account, accountID).Error; err != nil {
		t.Fatalf("load account %d: %v", accountID, err)
	}
	return account.BalanceCent
}
