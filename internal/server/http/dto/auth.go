package dto

// DefaultCurrency is used when registration omits the account currency.
const DefaultCurrency = "USD"

// AuthRequest describes login/password payload.
type AuthRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Currency string `json:"currency,omitempty"`
}

// TokenResponse carries the issued session token.
type TokenResponse struct {
	Token string `json:"token"`
}
