package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/soltonanna/personal-finance-tracker/internal/middleware"
	"github.com/soltonanna/personal-finance-tracker/internal/models"
	"github.com/soltonanna/personal-finance-tracker/internal/money"
	"github.com/soltonanna/personal-finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AccountHandler 负责账户相关接口
type AccountHandler struct {
	DB *gorm.DB
}

func NewAccountHandler(db *gorm.DB) *AccountHandler {
	return &AccountHandler{DB: db}
}

// ---------- 请求/响应结构 ----------

type accountReq struct {
	Name    string        `json:"name" binding:"required,max=64"`
	Balance *money.Amount `json:"balance" binding:"required"`
}

type accountResp struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	BalanceCent int64     `json:"balance_cent"`
	Balance     string    `json:"balance"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAccountResp(a *models.Account) accountResp {
	return accountResp{
		ID:          a.ID,
		Name:        a.Name,
		BalanceCent: a.BalanceCent,
		Balance:     money.FormatCent(a.BalanceCent),
		CreatedAt:   a.CreatedAt,
	}
}

// ---------- 接口 ----------

// ListAccounts returns all accounts owned by the caller.
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "unauthorized")
		return
	}

	var accounts []models.Account
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("created_at ASC, id ASC").
		Find(&accounts).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	items := make([]accountResp, 0, len(accounts))
	for i := range accounts {
		items = append(items, toAccountResp(&accounts[i]))
	}

	util.Success(c, util.Response{
		"accounts": items,
	})
}

// CreateAccount opens a new balance bucket for the caller.
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "unauthorized")
		return
	}

	var req accountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "missing name or balance")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "missing name or balance")
		return
	}

	balanceCent, err := req.Balance.ToCent()
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid balance")
		return
	}

	account := models.Account{
		UserID:      user.ID,
		Name:        req.Name,
		BalanceCent: balanceCent,
	}
	if err := h.DB.Create(&account).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create account failed")
		return
	}

	util.Created(c, util.Response{
		"account": toAccountResp(&account),
	})
}

// UpdateAccount renames an account and/or resets its stored balance.
// 只能修改自己的账户。
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "unauthorized")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid account id")
		return
	}

	var req accountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "missing name or balance")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "missing name or balance")
		return
	}

	balanceCent, err := req.Balance.ToCent()
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid balance")
		return
	}

	var account models.Account
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).
		First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "account not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	account.Name = req.Name
	account.BalanceCent = balanceCent

	if err := h.DB.Save(&account).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "update account failed")
		return
	}

	util.Success(c, util.Response{
		"account": toAccountResp(&account),
	})
}

// DeleteAccount removes an account and all of its transactions in one
// atomic unit.
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "unauthorized")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid account id")
		return
	}

	var account models.Account
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).
		First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "account not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	// transactions first, then the account
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", account.ID).
			Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&account).Error
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete account failed")
		return
	}

	util.Success(c, util.Response{
		"message": "Account deleted",
	})
}
