package model

import "time"

// User represents a registered account holder or reviewer.
type User struct {
	ID           int64
	Login        string
	PasswordHash string
	AccountID    string
	Reviewer     bool
	CreatedAt    time.Time
}

// Principal is the verified caller identity passed into every core operation.
type Principal struct {
	UserID    int64
	AccountID string
	Reviewer  bool
}
