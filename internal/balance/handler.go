package balance

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"promobank/internal/identity"
	"promobank/internal/money"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// AmountRequest carries a major-unit amount as a string, e.g. "120.50".
// Parsing happens server-side so clients never send floats.
type AmountRequest struct {
	Amount string `json:"amount" binding:"required" example:"120.50"`
}

type CreateBalanceRequest struct {
	UserID string `json:"user_id" binding:"required" example:"user-42"`
}

// GetBalance godoc
// @Summary      Get current balance
// @Description  Returns the caller's balance in minor units.
// @Tags         balance
// @Produce      json
// @Success      200  {object}  Balance
// @Failure      404  {object}  api.ErrorResponse
// @Router       /balance [get]
func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	b, err := h.svc.GetBalance(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Balance not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load balance"})
		return
	}

	c.JSON(http.StatusOK, b)
}

// Credit godoc
// @Summary      Credit balance
// @Description  Adds a major-unit amount to the caller's balance, creating it on first credit.
// @Tags         balance
// @Accept       json
// @Produce      json
// @Param        request  body      AmountRequest  true  "Amount in major units"
// @Success      200      {object}  Balance
// @Failure      400      {object}  api.ErrorResponse
// @Router       /balance/credit [post]
func (h *Handler) Credit(c *gin.Context) {
	userID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	amountMajor, ok := h.bindAmount(c)
	if !ok {
		return
	}

	b, err := h.svc.Credit(c.Request.Context(), userID, amountMajor)
	if err != nil {
		h.writeMoneyError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// Debit godoc
// @Summary      Debit balance
// @Description  Subtracts a major-unit amount from the caller's balance.
// @Tags         balance
// @Accept       json
// @Produce      json
// @Param        request  body      AmountRequest  true  "Amount in major units"
// @Success      200      {object}  Balance
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /balance/debit [post]
func (h *Handler) Debit(c *gin.Context) {
	userID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	amountMajor, ok := h.bindAmount(c)
	if !ok {
		return
	}

	b, err := h.svc.Debit(c.Request.Context(), userID, amountMajor)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Balance not found"})
			return
		}
		if errors.Is(err, money.ErrInsufficientFunds) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient funds"})
			return
		}
		h.writeMoneyError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// ListTransactions godoc
// @Summary      List balance transactions
// @Description  Returns the caller's journal entries, newest first.
// @Tags         balance
// @Produce      json
// @Param        limit   query     int  false  "Page size"    default(50)
// @Param        offset  query     int  false  "Page offset"  default(0)
// @Success      200     {array}   Transaction
// @Router       /balance/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.svc.Transactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, txs)
}

// CreateBalance godoc
// @Summary      Create a balance (admin)
// @Description  Explicitly creates a zero balance for the given user.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      CreateBalanceRequest  true  "Target user"
// @Success      201      {object}  Balance
// @Failure      409      {object}  api.ErrorResponse
// @Router       /admin/balances [post]
func (h *Handler) CreateBalance(c *gin.Context) {
	var req CreateBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	b, err := h.svc.CreateBalance(c.Request.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Balance already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create balance"})
		return
	}

	c.JSON(http.StatusCreated, b)
}

func (h *Handler) bindAmount(c *gin.Context) (float64, bool) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return 0, false
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount format"})
		return 0, false
	}

	major, err := money.ToMajor(amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount format"})
		return 0, false
	}

	return major, true
}

func (h *Handler) writeMoneyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, money.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be a positive number"})
	case errors.Is(err, money.ErrAmountTooLarge), errors.Is(err, money.ErrOverflow):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount exceeds the allowed maximum"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update balance"})
	}
}
