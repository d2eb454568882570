package types

import "time"

type Transaction struct {
	ID            string    `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	TransactionID string    `db:"transaction_id" json:"transactionId"`
	AmountCents   int64     `db:"amount_cents" json:"amountCents"`
	Currency      string    `db:"currency" json:"currency"`
	Purpose       string    `db:"purpose" json:"purpose"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
}
