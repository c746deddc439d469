package amqp

import (
	"encoding/json"

	"github.com/pocketplan/pocketplan/internal/event_bus"
)

const dateLayout = "2006-01-02"

// Message is the JSON body put on the queue. Payload depends on Type.
type Message struct {
	Type    string `json:"type"`
	UserId  int    `json:"userId"`
	Payload any    `json:"payload"`
}

type TransactionPayload struct {
	Id          int    `json:"id"`
	CategoryId  int    `json:"categoryId"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Confirmed   bool   `json:"confirmed"`
	Edit        bool   `json:"edit"`
}

type CategoryDeletedPayload struct {
	Id                  int `json:"id"`
	PlansDeleted        int `json:"plansDeleted"`
	TransactionsDeleted int `json:"transactionsDeleted"`
}

func NewTransactionMessage(e event_bus.TransactionCommitted) Message {
	return Message{
		Type:   string(event_bus.TransactionCommittedType),
		UserId: e.UserId,
		Payload: TransactionPayload{
			Id:          e.Id,
			CategoryId:  e.CategoryId,
			Kind:        e.Kind,
			Amount:      e.Amount.StringFixed(2),
			Date:        e.Date.Format(dateLayout),
			Description: e.Description,
			Confirmed:   e.Confirmed,
			Edit:        e.Edit,
		},
	}
}

func NewCategoryDeletedMessage(e event_bus.CategoryDeleted) Message {
	return Message{
		Type:   string(event_bus.CategoryDeletedType),
		UserId: e.UserId,
		Payload: CategoryDeletedPayload{
			Id:                  e.Id,
			PlansDeleted:        e.PlansDeleted,
			TransactionsDeleted: e.TransactionsDeleted,
		},
	}
}

func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
