package redis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/polkiloo/cashout/internal/domain/model"
)

type accountDocument struct {
	ID           string                `json:"id"`
	Balance      int64                 `json:"balance"`
	Currency     string                `json:"currency"`
	Version      int64                 `json:"version"`
	CreatedAt    time.Time             `json:"created_at"`
	Transactions []transactionDocument `json:"transactions"`
}

type transactionDocument struct {
	ID          string     `json:"id"`
	Amount      int64      `json:"amount"`
	Destination string     `json:"destination"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
}

func encode(account *model.Account) ([]byte, error) {
	doc := accountDocument{
		ID:           account.ID,
		Balance:      account.Balance,
		Currency:     account.Currency,
		Version:      account.Version,
		CreatedAt:    account.CreatedAt,
		Transactions: make([]transactionDocument, 0, len(account.Transactions)),
	}
	for _, t := range account.Transactions {
		doc.Transactions = append(doc.Transactions, transactionDocument{
			ID:          t.ID,
			Amount:      t.Amount,
			Destination: t.Destination,
			Status:      string(t.Status),
			CreatedAt:   t.CreatedAt,
			ReviewedAt:  t.ReviewedAt,
		})
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode account %s: %w", account.ID, err)
	}
	return payload, nil
}

func decode(raw []byte) (*model.Account, error) {
	var doc accountDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, unavailable(fmt.Errorf("decode account: %w", err))
	}
	account := &model.Account{
		ID:        doc.ID,
		Balance:   doc.Balance,
		Currency:  doc.Currency,
		Version:   doc.Version,
		CreatedAt: doc.CreatedAt,
	}
	for _, t := range doc.Transactions {
		account.Transactions = append(account.Transactions, model.Transaction{
			ID:          t.ID,
			Amount:      t.Amount,
			Destination: t.Destination,
			Status:      model.TransactionStatus(t.Status),
			CreatedAt:   t.CreatedAt,
			ReviewedAt:  t.ReviewedAt,
		})
	}
	return account, nil
}
