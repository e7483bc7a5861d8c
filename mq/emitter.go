package mq

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"vermilion/db"
	"vermilion/rdx"

	"go.mongodb.org/mongo-driver/bson"
)

const orderEventsChannel = "order-events"

type OrderLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderEvent is the message published on the order events channel.
type OrderEvent struct {
	Type    string      `json:"type"` // order-created | order-paid
	OrderID string      `json:"orderId"`
	UserID  string      `json:"userId,omitempty"`
	Lines   []OrderLine `json:"lines,omitempty"`
	At      time.Time   `json:"at"`
}

func publish(event OrderEvent) {
	event.At = time.Now()
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[mq] failed to marshal %s event: %v", event.Type, err)
		return
	}
	if err := rdx.Conn.Publish(context.Background(), orderEventsChannel, data).Err(); err != nil {
		log.Printf("[mq] failed to publish %s event: %v", event.Type, err)
	}
}

func EmitOrderCreated(orderID, userID string, lines []OrderLine) {
	publish(OrderEvent{Type: "order-created", OrderID: orderID, UserID: userID, Lines: lines})
}

func EmitOrderPaid(orderID string) {
	publish(OrderEvent{Type: "order-paid", OrderID: orderID})
}

// StartOrderWorker consumes order events and keeps per-product sales
// counters current; those counters feed the featured catalog sort.
func StartOrderWorker() {
	ctx := context.Background()
	sub := rdx.Conn.Subscribe(ctx, orderEventsChannel)
	ch := sub.Channel()

	log.Println("[mq] order worker listening")

	for msg := range ch {
		var event OrderEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Printf("[mq] failed to parse event: %v", err)
			continue
		}

		switch event.Type {
		case "order-created":
			for _, line := range event.Lines {
				_, err := db.ProductCollection.UpdateOne(ctx,
					bson.M{"productId": line.ProductID},
					bson.M{"$inc": bson.M{"salesCount": line.Quantity}})
				if err != nil {
					log.Printf("[mq] sales count update failed for %s: %v", line.ProductID, err)
				}
			}
		case "order-paid":
			log.Printf("[mq] order %s paid", event.OrderID)
		default:
			log.Printf("[mq] unknown event type %q", event.Type)
		}
	}
}
