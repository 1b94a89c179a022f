package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type PaymentStatus string

const (
	StatusNew        PaymentStatus = "NEW"
	StatusAuthorized PaymentStatus = "AUTHORIZED"
	StatusCaptured   PaymentStatus = "CAPTURED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusNew, StatusAuthorized, StatusCaptured:
		return true
	}
	return false
}

// UnmarshalJSON rejects statuses outside the NEW/AUTHORIZED/CAPTURED set.
// "" and null decode to the zero value.
func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	status := PaymentStatus(raw)
	if status != "" && !status.Valid() {
		return fmt.Errorf("unknown payment status %q", raw)
	}
	*s = status
	return nil
}

type PaymentType string

const (
	PaymentCreditCard PaymentType = "CREDIT_CARD"
	PaymentPaypal     PaymentType = "PAYPAL"
)

func (p PaymentType) Valid() bool {
	switch p {
	case PaymentCreditCard, PaymentPaypal:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown payment types; "" and null decode to the zero value.
func (p *PaymentType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	paymentType := PaymentType(raw)
	if paymentType != "" && !paymentType.Valid() {
		return fmt.Errorf("unknown payment type %q", raw)
	}
	*p = paymentType
	return nil
}

type OrderLine struct {
	ProductName string  `json:"productName" bson:"productName"`
	Quantity    int     `json:"quantity" bson:"quantity"`
	Price       float64 `json:"price" bson:"price"`
}

// Transaction maps directly onto the SQL table; the document store converts it.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions" json:"-"`

	ID          string        `bun:"id,pk" json:"id"`
	Amount      float64       `bun:"amount" json:"amount"`
	PaymentType PaymentType   `bun:"payment_type" json:"paymentType"`
	Status      PaymentStatus `bun:"status" json:"status"`
	OrderLines  []OrderLine   `bun:"order_lines,type:jsonb" json:"orderLines"`
}

type TransactionEvent struct {
	Type          string       `json:"type"`
	TransactionID string       `json:"transaction_id"`
	Transaction   *Transaction `json:"transaction,omitempty"`
	Timestamp     time.Time    `json:"timestamp"`
}
