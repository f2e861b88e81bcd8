package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/cashout/internal/domain/model"
	"github.com/polkiloo/cashout/internal/server/http/dto"
)

// WithdrawalHandler manages account holder endpoints.
type WithdrawalHandler struct {
	facade WithdrawalFacade
}

// NewWithdrawalHandler constructs WithdrawalHandler.
func NewWithdrawalHandler(facade WithdrawalFacade) *WithdrawalHandler {
	return &WithdrawalHandler{facade: facade}
}

// Balance handles GET /api/user/balance.
func (h *WithdrawalHandler) Balance(c *gin.Context) {
	summary, err := h.facade.Balance(c.Request.Context(), CurrentPrincipal(c))
	if err != nil {
		c.Status(statusFor(err))
		return
	}
	c.JSON(http.StatusOK, toBalanceResponse(summary))
}

// Submit handles POST /api/user/withdrawals.
func (h *WithdrawalHandler) Submit(c *gin.Context) {
	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	tx, err := h.facade.Submit(c.Request.Context(), CurrentPrincipal(c), req.Code, req.Amount, req.Destination)
	if err != nil {
		c.Status(statusFor(err))
		return
	}
	c.JSON(http.StatusAccepted, dto.SubmitResponse{ID: tx.ID, Status: string(tx.Status)})
}

// History handles GET /api/user/withdrawals.
func (h *WithdrawalHandler) History(c *gin.Context) {
	statement, err := h.facade.Withdrawals(c.Request.Context(), CurrentPrincipal(c))
	writeStatement(c, statement, err)
}

// Pending handles GET /api/user/withdrawals/pending.
func (h *WithdrawalHandler) Pending(c *gin.Context) {
	statement, err := h.facade.PendingWithdrawals(c.Request.Context(), CurrentPrincipal(c))
	writeStatement(c, statement, err)
}

func writeStatement(c *gin.Context, statement *model.Statement, err error) {
	if err != nil {
		c.Status(statusFor(err))
		return
	}
	if len(statement.Transactions) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]dto.WithdrawalResponse, 0, len(statement.Transactions))
	for _, tx := range statement.Transactions {
		resp = append(resp, toWithdrawalResponse(tx, statement.Currency))
	}
	c.JSON(http.StatusOK, resp)
}
