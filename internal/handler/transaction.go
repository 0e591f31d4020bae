package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/soltonanna/personal-finance-tracker/internal/ledger"
	"github.com/soltonanna/personal-finance-tracker/internal/middleware"
	"github.com/soltonanna/personal-finance-tracker/internal/models"
	"github.com/soltonanna/personal-finance-tracker/internal/money"
	"github.com/soltonanna/personal-finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TransactionHandler 负责交易相关接口
type TransactionHandler struct {
	DB       *gorm.DB
	PageSize int
}

func NewTransactionHandler(db *gorm.DB, pageSize int) *TransactionHandler {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &TransactionHandler{DB: db, PageSize: pageSize}
}

// ---------- 请求/响应结构 ----------

type transactionReq struct {
	AccountID  uint          `json:"account_id" binding:"required"`
	CategoryID uint          `json:"category_id" binding:"required"`
	Amount     *money.Amount `json:"amount" binding:"required"`
	Type       string        `json:"type" binding:"required,oneof=income expense"`
	Note       string        `json:"note" binding:"max=255"`
	Date       string        `json:"date"`
}

type transactionResp struct {
	ID         uint      `json:"id"`
	AccountID  uint      `json:"account_id"`
	CategoryID uint      `json:"category_id"`
	Type       string    `json:"type"`
	AmountCent int64     `json:"amount_cent"`
	Amount     string    `json:"amount"`
	Note       string    `json:"note"`
	Date       time.Time `json:"date"`
	CreatedAt  time.Time `json:"created_at"`
}

func toTransactionResp(t *models.Transaction) transactionResp {
	return transactionResp{
		ID:         t.ID,
		AccountID:  t.AccountID,
		CategoryID: t.CategoryID,
		Type:       t.Type,
		AmountCent: t.AmountCent,
		Amount:     money.FormatCent(t.AmountCent),
		Note:       t.Note,
		Date:       t.Date,
		CreatedAt:  t.CreatedAt,
	}
}

// ---------- 工具函数 ----------

// parseDate accepts the formats the web views send. Empty means now.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Now(), true
	}
	layouts := []string{
		time.RFC3339,          // 2025-12-03T00:00:00+04:00
		"2006-01-02T15:04:05", // 2025-12-03T00:00:00
		"2006-01-02",          // 2025-12-03
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ownedAccount loads an account only when the caller owns it.
func ownedAccount(tx *gorm.DB, userID, accountID uint) (*models.Account, error) {
	var account models.Account
	err := tx.Where("id = ? AND user_id = ?", accountID, userID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ownedCategory loads a category only when the caller owns it.
func ownedCategory(tx *gorm.DB, userID, categoryID uint) (*models.Category, error) {
	var category models.Category
	err := tx.Where("id = ? AND user_id = ?", categoryID, userID).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// ownedTransaction loads a transaction scoped through its account's owner.
func ownedTransaction(tx *gorm.DB, userID uint, id int) (*models.Transaction, error) {
	var txn models.Transaction
	err := tx.Joins("JOIN accounts ON accounts.id = transactions.account_id").
		Where("transactions.id = ? AND accounts.user_id = ?", id, userID).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func respondStoreErr(c *gin.Context, err error, notFoundMsg string) {
	if err == gorm.ErrRecordNotFound {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, notFoundMsg)
		return
	}
	util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
}

// ---------- 记一笔 ----------

// CreateTransaction records an income/expense event and adjusts the owning
// account's balance, both inside one database transaction.
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "unauthorized")
		return
	}

	var req transactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid input")
		return
	}

	amountCent, err := req.Amount.PositiveCent()
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid amount")
		return
	}

	date, ok := parseDate(req.Date)
	if !ok {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid date")
		return
	}

	var txn models.Transaction
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		// both referenced resources must belong to the caller
		if _, err := ownedAccount(tx, user.ID, req.AccountID); err != nil {
			return err
		}
		if _, err := ownedCategory(tx, user.ID, req.CategoryID); err != nil {
			return err
		}

		txn = models.Transaction{
			AccountID:  req.AccountID,
			CategoryID: req.CategoryID,
			Type:       req.Type,
			AmountCent: amountCent,
			Note:       req.Note,
			Date:       date,
		}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}

		return ledger.ApplyDelta(tx, req.AccountID, ledger.CreateDelta(req.Type, amountCent))
	})
	if err != nil {
		respondStoreErr(c, err, "account or category not found")
		return
	}

	util.Created(c, util.Response{
		"transaction": toTransactionResp(&txn),
	})
}

// ---------- 查询 ----------

// GetTransaction returns one transaction owned (via its account) by the caller.
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "unauthorized")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid transaction id")
		return
	}

	txn, err := ownedTransaction(h.DB, user.ID, id)
	if err != nil {
		respondStoreErr(c, err, "transaction not found")
		return
	}

	util.Success(c, util.Response{
		"transaction": toTransactionResp(txn),
	})
}

// ListTransactions returns the caller's transactions, newest first, with
// optional type/account/date filters and teacher-style pagination.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "unauthorized")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.PageSize)))
	if size <= 0 || size > 500 {
		size = h.PageSize
	}
	offset := (page - 1) * size

	base := h.DB.Model(&models.Transaction{}).
		Joins("JOIN accounts ON accounts.id = transactions.account_id").
		Where("accounts.user_id = ?", user.ID)

	if txType := c.Query("type"); txType == ledger.TypeIncome || txType == ledger.TypeExpense {
		base = base.Where("transactions.type = ?", txType)
	}
	if accountID, err := strconv.Atoi(c.Query("account_id")); err == nil && accountID > 0 {
		base = base.Where("transactions.account_id = ?", accountID)
	}
	if start := c.Query("start"); start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "start date must be YYYY-MM-DD")
			return
		}
		base = base.Where("transactions.date >= ?", t)
	}
	if end := c.Query("end"); end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "end date must be YYYY-MM-DD")
			return
		}
		// end is inclusive: < end+1 day
		base = base.Where("transactions.date < ?", t.Add(24*time.Hour))
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	var txns []models.Transaction
	if err := base.Session(&gorm.Session{}).
		Order("transactions.date DESC, transactions.id DESC").
		Limit(size).
		Offset(offset).
		Find(&txns).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	items := make([]transactionResp, 0, len(txns))
	var totalIncomeCent, totalExpenseCent int64
	for i := range txns {
		items = append(items, toTransactionResp(&txns[i]))
	}

	// summary over the same filters, not just the current page
	var all []models.Transaction
	if err := base.Session(&gorm.Session{}).Find(&all).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	for i := range all {
		if all[i].Type == ledger.TypeIncome {
			totalIncomeCent += all[i].AmountCent
		} else {
			totalExpenseCent += all[i].AmountCent
		}
	}

	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
		"summary": gin.H{
			"total_income_cent":  totalIncomeCent,
			"total_income":       money.FormatCent(totalIncomeCent),
			"total_expense_cent": totalExpenseCent,
			"total_expense":      money.FormatCent(totalExpenseCent),
			"net_cent":           totalIncomeCent - totalExpenseCent,
			"net":                money.FormatCent(totalIncomeCent - totalExpenseCent),
		},
	})
}

// ---------- 修改 ----------

// UpdateTransaction rewrites a transaction and reconciles the affected
// account balance(s). Ownership of the target account and category is
// re-validated, not just the row being updated.
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "unauthorized")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid transaction id")
		return
	}

	var req transactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid input")
		return
	}

	amountCent, err := req.Amount.PositiveCent()
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid amount")
		return
	}

	date, ok := parseDate(req.Date)
	if !ok {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid date")
		return
	}

	var updated models.Transaction
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		old, err := ownedTransaction(tx, user.ID, id)
		if err != nil {
			return err
		}

		if _, err := ownedAccount(tx, user.ID, req.AccountID); err != nil {
			return err
		}
		if _, err := ownedCategory(tx, user.ID, req.CategoryID); err != nil {
			return err
		}

		updated = *old
		updated.AccountID = req.AccountID
		updated.CategoryID = req.CategoryID
		updated.Type = req.Type
		updated.AmountCent = amountCent
		updated.Note = req.Note
		updated.Date = date

		if err := tx.Save(&updated).Error; err != nil {
			return err
		}

		if old.AccountID == req.AccountID {
			delta := ledger.UpdateDelta(old.Type, old.AmountCent, req.Type, amountCent)
			return ledger.ApplyDelta(tx, old.AccountID, delta)
		}

		// moved to another account: reverse on the old, apply on the new
		if err := ledger.ApplyDelta(tx, old.AccountID, ledger.DeleteDelta(old.Type, old.AmountCent)); err != nil {
			return err
		}
		return ledger.ApplyDelta(tx, req.AccountID, ledger.CreateDelta(req.Type, amountCent))
	})
	if err != nil {
		respondStoreErr(c, err, "transaction not found")
		return
	}

	util.Success(c, util.Response{
		"transaction": toTransactionResp(&updated),
	})
}

// ---------- 删除一条记录 ----------

// DeleteTransaction removes a transaction and reverses its contribution.
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "unauthorized")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid transaction id")
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		txn, err := ownedTransaction(tx, user.ID, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.Transaction{}, txn.ID).Error; err != nil {
			return err
		}
		return ledger.ApplyDelta(tx, txn.AccountID, ledger.DeleteDelta(txn.Type, txn.AmountCent))
	})
	if err != nil {
		respondStoreErr(c, err, "transaction not found")
		return
	}

	util.Success(c, util.Response{
		"message": "Deleted",
	})
}
