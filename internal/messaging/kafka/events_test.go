package kafka

import (
	"encoding/json"
	"testing"
)

func TestNewOrderCreatedEvent(t *testing.T) {
	items := []OrderEventItem{
		{ProductID: "product-1", Qty: 2, PriceMinor: 100},
	}
	event := NewOrderCreatedEvent("order-1", "customer-1", 200, items)

	if event.EventType != EventTypeOrderCreated {
		t.Fatalf("unexpected event type %s", event.EventType)
	}
	if event.OrderID != "order-1" || event.CustomerID != "customer-1" {
		t.Fatalf("unexpected ids %+v", event)
	}
	if event.AmountMinor != 200 {
		t.Fatalf("unexpected amount %d", event.AmountMinor)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("timestamp must be set")
	}
}

func TestOrderCreatedEventJSON(t *testing.T) {
	event := NewOrderCreatedEvent("order-1", "customer-1", 200, []OrderEventItem{
		{ProductID: "product-1", Qty: 2, PriceMinor: 100},
	})

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if decoded["event_type"] != string(EventTypeOrderCreated) {
		t.Fatalf("unexpected event_type %v", decoded["event_type"])
	}
	if decoded["order_id"] != "order-1" {
		t.Fatalf("unexpected order_id %v", decoded["order_id"])
	}
}
