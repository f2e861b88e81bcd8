package dto

import "github.com/shopspring/decimal"

// BalanceResponse represents account figures in major units.
type BalanceResponse struct {
	Account   string `json:"account"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	Reserved  string `json:"reserved"`
	Available string `json:"available"`
}

// SetBalanceRequest describes reviewer balance override payload.
type SetBalanceRequest struct {
	Balance *decimal.Decimal `json:"balance"`
}
