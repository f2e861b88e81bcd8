package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
	"github.com/polkiloo/cashout/internal/domain/model"
	"github.com/polkiloo/cashout/internal/pkg/money"
	"github.com/polkiloo/cashout/internal/server/http/dto"
	"github.com/polkiloo/cashout/internal/server/http/middleware"
)

// CurrentPrincipal extracts authenticated caller from context.
func CurrentPrincipal(c *gin.Context) model.Principal {
	principal, _ := middleware.Principal(c)
	return principal
}

// statusFor maps workflow errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domainErrors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domainErrors.ErrInvalidAmount), errors.Is(err, domainErrors.ErrInvalidDestination):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainErrors.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, domainErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainErrors.ErrAlreadyFinalized):
		return http.StatusConflict
	case errors.Is(err, domainErrors.ErrInvalidDecision):
		return http.StatusBadRequest
	case errors.Is(err, domainErrors.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func toWithdrawalResponse(tx model.Transaction, currency string) dto.WithdrawalResponse {
	return dto.WithdrawalResponse{
		ID:          tx.ID,
		Amount:      money.Format(tx.Amount, currency),
		Currency:    currency,
		Destination: tx.Destination,
		Status:      string(tx.Status),
		CreatedAt:   tx.CreatedAt,
		ReviewedAt:  tx.ReviewedAt,
	}
}

func toAccountWithdrawalResponse(w model.Withdrawal) dto.AccountWithdrawalResponse {
	return dto.AccountWithdrawalResponse{
		Account:            w.AccountID,
		WithdrawalResponse: toWithdrawalResponse(w.Transaction, w.Currency),
	}
}

func toBalanceResponse(s *model.AccountSummary) dto.BalanceResponse {
	return dto.BalanceResponse{
		Account:   s.AccountID,
		Currency:  s.Currency,
		Balance:   money.Format(s.Balance, s.Currency),
		Reserved:  money.Format(s.Reserved, s.Currency),
		Available: money.Format(s.Available, s.Currency),
	}
}
