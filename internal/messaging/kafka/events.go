package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// Order события
	EventTypeOrderCreated EventType = "order.created"
	// Product события
	EventTypeProductCreated EventType = "product.created"
	EventTypeStockUpdated   EventType = "stock.updated"
	// Customer события
	EventTypeCustomerCreated EventType = "customer.created"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "shop.order.events"
	TopicCatalogEvents   = "shop.catalog.events"
	TopicDeadLetterQueue = "shop.dlq" // Dead Letter Queue для failed messages
)

// OrderCreatedEvent — payload события о созданном заказе.
type OrderCreatedEvent struct {
	EventType   EventType        `json:"event_type"`
	OrderID     string           `json:"order_id"`
	CustomerID  string           `json:"customer_id"`
	AmountMinor int64            `json:"amount_minor"`
	Items       []OrderEventItem `json:"items"`
	Timestamp   time.Time        `json:"timestamp"`
}

// OrderEventItem — позиция заказа внутри события.
type OrderEventItem struct {
	ProductID  string `json:"product_id"`
	Qty        int32  `json:"qty"`
	PriceMinor int64  `json:"price_minor"`
}

// StockUpdatedEvent — payload события об изменении остатков.
type StockUpdatedEvent struct {
	EventType EventType        `json:"event_type"`
	Items     []OrderEventItem `json:"items"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewOrderCreatedEvent собирает событие о созданном заказе.
func NewOrderCreatedEvent(orderID, customerID string, amountMinor int64, items []OrderEventItem) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		EventType:   EventTypeOrderCreated,
		OrderID:     orderID,
		CustomerID:  customerID,
		AmountMinor: amountMinor,
		Items:       items,
		Timestamp:   time.Now().UTC(),
	}
}
