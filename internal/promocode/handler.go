package promocode

import (
	"errors"
	"net/http"
	"time"

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

type ActivateRequest struct {
	Code string `json:"code" binding:"required" example:"WELCOME100"`
}

type CreateRequest struct {
	Code        string  `json:"code" binding:"required" example:"WELCOME100"`
	Amount      string  `json:"amount" binding:"required" example:"100.00"`
	Kind        string  `json:"kind" binding:"omitempty,oneof=single_use multi_use" example:"single_use"`
	ExpiresAt   *string `json:"expires_at" example:"2026-12-31T23:59:59Z"`
	UsageLimit  *int    `json:"usage_limit" example:"100"`
	Description *string `json:"description" example:"Welcome bonus"`
}

// Activate godoc
// @Summary      Activate a promocode
// @Description  Redeems the code and credits its amount to the caller's balance.
// @Tags         promocodes
// @Accept       json
// @Produce      json
// @Param        request  body      ActivateRequest  true  "Promocode"
// @Success      200      {object}  ActivationResult
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /promocodes/activate [post]
func (h *Handler) Activate(c *gin.Context) {
	userID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	result, err := h.svc.Activate(c.Request.Context(), userID, req.Code)
	if err != nil {
		h.writeActivationError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetByCode godoc
// @Summary      Get promocode details
// @Tags         promocodes
// @Produce      json
// @Param        code  path      string  true  "Promocode"
// @Success      200   {object}  Promocode
// @Failure      404   {object}  api.ErrorResponse
// @Router       /promocodes/{code} [get]
func (h *Handler) GetByCode(c *gin.Context) {
	p, err := h.svc.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Promocode not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load promocode"})
		return
	}

	c.JSON(http.StatusOK, p)
}

// MyUsages godoc
// @Summary      List own redemptions
// @Tags         promocodes
// @Produce      json
// @Success      200  {array}  Usage
// @Router       /promocodes/my/usages [get]
func (h *Handler) MyUsages(c *gin.Context) {
	userID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	usages, err := h.svc.UserUsages(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load usages"})
		return
	}

	c.JSON(http.StatusOK, usages)
}

// Create godoc
// @Summary      Create a promocode (admin)
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      CreateRequest  true  "Promocode definition"
// @Success      201      {object}  Promocode
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /admin/promocodes [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and amount are required"})
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount format"})
		return
	}

	params := CreateParams{
		Code:             req.Code,
		AmountMinorUnits: int64(amount),
		Kind:             req.Kind,
		UsageLimit:       req.UsageLimit,
		Description:      req.Description,
	}

	if req.ExpiresAt != nil {
		expiresAt, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expires_at must be RFC3339"})
			return
		}
		params.ExpiresAt = &expiresAt
	}

	p, err := h.svc.Create(c.Request.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateCode):
			c.JSON(http.StatusConflict, gin.H{"error": "Promocode with this code already exists"})
		case errors.Is(err, money.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create promocode"})
		}
		return
	}

	c.JSON(http.StatusCreated, p)
}

// List godoc
// @Summary      List promocodes (admin)
// @Tags         admin
// @Produce      json
// @Success      200  {array}  Promocode
// @Router       /admin/promocodes [get]
func (h *Handler) List(c *gin.Context) {
	codes, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load promocodes"})
		return
	}

	c.JSON(http.StatusOK, codes)
}

// Deactivate godoc
// @Summary      Deactivate a promocode (admin)
// @Tags         admin
// @Produce      json
// @Param        id   path      string  true  "Promocode ID"
// @Success      200  {object}  Promocode
// @Failure      404  {object}  api.ErrorResponse
// @Router       /admin/promocodes/{id}/deactivate [patch]
func (h *Handler) Deactivate(c *gin.Context) {
	p, err := h.svc.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Promocode not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate promocode"})
		return
	}

	c.JSON(http.StatusOK, p)
}

// Usages godoc
// @Summary      List redemptions of a promocode (admin)
// @Tags         admin
// @Produce      json
// @Param        id   path     string  true  "Promocode ID"
// @Success      200  {array}  Usage
// @Router       /admin/promocodes/{id}/usages [get]
func (h *Handler) Usages(c *gin.Context) {
	usages, err := h.svc.PromocodeUsages(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load usages"})
		return
	}

	c.JSON(http.StatusOK, usages)
}

func (h *Handler) writeActivationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Promocode not found"})
	case errors.Is(err, ErrAlreadyRedeemed):
		c.JSON(http.StatusConflict, gin.H{"error": "Promocode already used"})
	case errors.Is(err, ErrCodeInactive):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Promocode is inactive"})
	case errors.Is(err, ErrCodeExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Promocode has expired"})
	case errors.Is(err, ErrUsageLimitReached):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Promocode usage limit reached"})
	case errors.Is(err, money.ErrOverflow):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Balance would exceed the allowed maximum"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to activate promocode"})
	}
}
