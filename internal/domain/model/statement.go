package model

// Statement lists withdrawals of one account together with its currency.
type Statement struct {
	AccountID    string
	Currency     string
	Transactions []Transaction
}
