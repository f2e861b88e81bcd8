package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/cashout/internal/domain/model"
	"github.com/polkiloo/cashout/internal/server/http/dto"
)

// ReviewHandler manages reviewer endpoints.
type ReviewHandler struct {
	facade ReviewFacade
}

// NewReviewHandler constructs ReviewHandler.
func NewReviewHandler(facade ReviewFacade) *ReviewHandler {
	return &ReviewHandler{facade: facade}
}

// Queue handles GET /api/admin/withdrawals/pending.
func (h *ReviewHandler) Queue(c *gin.Context) {
	h.writeWithdrawals(c, h.facade.AllPending)
}

// Withdrawals handles GET /api/admin/withdrawals.
func (h *ReviewHandler) Withdrawals(c *gin.Context) {
	h.writeWithdrawals(c, h.facade.AllWithdrawals)
}

// Accounts handles GET /api/admin/accounts.
func (h *ReviewHandler) Accounts(c *gin.Context) {
	summaries, err := h.facade.AccountSummaries(c.Request.Context(), CurrentPrincipal(c))
	if err != nil {
		c.Status(statusFor(err))
		return
	}
	if len(summaries) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]dto.BalanceResponse, 0, len(summaries))
	for i := range summaries {
		resp = append(resp, toBalanceResponse(&summaries[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReviewHandler) writeWithdrawals(c *gin.Context, list func(context.Context, model.Principal) ([]model.Withdrawal, error)) {
	withdrawals, err := list(c.Request.Context(), CurrentPrincipal(c))
	if err != nil {
		c.Status(statusFor(err))
		return
	}
	if len(withdrawals) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]dto.AccountWithdrawalResponse, 0, len(withdrawals))
	for _, w := range withdrawals {
		resp = append(resp, toAccountWithdrawalResponse(w))
	}
	c.JSON(http.StatusOK, resp)
}

// Review handles POST /api/admin/accounts/:account/withdrawals/:id/:decision.
func (h *ReviewHandler) Review(c *gin.Context) {
	decision, ok := model.ParseDecision(c.Param("decision"))
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	reviewed, err := h.facade.Review(c.Request.Context(), CurrentPrincipal(c), c.Param("account"), c.Param("id"), decision)
	if err != nil {
		c.Status(statusFor(err))
		return
	}
	c.JSON(http.StatusOK, toAccountWithdrawalResponse(*reviewed))
}

// SetBalance handles PUT /api/admin/accounts/:account/balance.
func (h *ReviewHandler) SetBalance(c *gin.Context) {
	var req dto.SetBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Balance == nil {
		c.Status(http.StatusBadRequest)
		return
	}

	summary, err := h.facade.SetBalance(c.Request.Context(), CurrentPrincipal(c), c.Param("account"), *req.Balance)
	if err != nil {
		c.Status(statusFor(err))
		return
	}
	c.JSON(http.StatusOK, toBalanceResponse(summary))
}
