package mongo

import (
	"fmt"

	"ms-transactions/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// document is the stored shape of a transaction. ID holds either a
// primitive.ObjectID or a plain string.
type document struct {
	ID          interface{}          `bson:"_id"`
	Amount      float64              `bson:"amount"`
	PaymentType models.PaymentType   `bson:"paymentType"`
	Status      models.PaymentStatus `bson:"status"`
	OrderLines  []models.OrderLine   `bson:"orderLines"`
}

// documentID maps an API id to its _id value.
func documentID(id string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func toDocument(tx models.Transaction) document {
	return document{
		ID:          documentID(tx.ID),
		Amount:      tx.Amount,
		PaymentType: tx.PaymentType,
		Status:      tx.Status,
		OrderLines:  tx.OrderLines,
	}
}

func (d document) transaction() models.Transaction {
	var id string
	switch v := d.ID.(type) {
	case primitive.ObjectID:
		id = v.Hex()
	case string:
		id = v
	case nil:
	default:
		id = fmt.Sprint(v)
	}

	return models.Transaction{
		ID:          id,
		Amount:      d.Amount,
		PaymentType: d.PaymentType,
		Status:      d.Status,
		OrderLines:  d.OrderLines,
	}
}
