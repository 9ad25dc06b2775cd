package realtime

import "encoding/json"

// EventNewOrder notifies a seller that one of their products was purchased.
const EventNewOrder = "new-order"

// NewOrderEvent is the payload pushed to a seller when an order containing
// their products completes. Field names are part of the client contract.
type NewOrderEvent struct {
	Message     string    `json:"message"`
	OrderID     string    `json:"orderId"`
	Quantity    int       `json:"quantity"`
	TotalAmount string    `json:"totalAmount"`
	Buyer       BuyerInfo `json:"buyer"`
}

// BuyerInfo identifies the purchasing customer inside an event.
type BuyerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Envelope is the wire frame carried over Redis pub/sub and down the SSE
// stream.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
