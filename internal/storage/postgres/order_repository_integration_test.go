package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func sampleCustomer(id, email string, createdAt time.Time) domain.Customer {
	return domain.Customer{
		ID:        id,
		Name:      "Alice",
		Email:     email,
		CreatedAt: createdAt,
	}
}

func sampleOrder(id, customerID string, createdAt time.Time) domain.Order {
	return domain.Order{
		ID:          id,
		CustomerID:  customerID,
		AmountMinor: 500,
		Items: []domain.OrderItem{
			{ID: id + "-item-1", ProductID: "product-1", Qty: 5, PriceMinor: 100, CreatedAt: createdAt},
		},
		CreatedAt: createdAt,
	}
}

func TestOrderRepository_PostgresCreateGetList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customers := NewCustomerRepository(store)
	repo := NewOrderRepository(store)

	now := time.Now().UTC().Round(time.Microsecond)
	if err := customers.Create(sampleCustomer("customer-1", "alice@example.com", now)); err != nil {
		t.Fatalf("create customer: %v", err)
	}

	order1 := sampleOrder("order-1", "customer-1", now.Add(-2*time.Minute))
	order2 := sampleOrder("order-2", "customer-1", now.Add(-time.Minute))

	if err := repo.Create(order1); err != nil {
		t.Fatalf("create order1: %v", err)
	}
	if err := repo.Create(order2); err != nil {
		t.Fatalf("create order2: %v", err)
	}

	got, err := repo.Get(order1.ID)
	if err != nil {
		t.Fatalf("get order1: %v", err)
	}
	if got.CustomerID != "customer-1" || len(got.Items) != 1 {
		t.Fatalf("unexpected order %+v", got)
	}
	if got.Items[0].PriceMinor != 100 || got.Items[0].Qty != 5 {
		t.Fatalf("unexpected item %+v", got.Items[0])
	}

	orders, err := repo.ListByCustomer("customer-1", 0)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].ID != "order-2" {
		t.Fatalf("expected newest order first, got %s", orders[0].ID)
	}

	limited, err := repo.ListByCustomer("customer-1", 1)
	if err != nil {
		t.Fatalf("list orders with limit: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 order, got %d", len(limited))
	}
}

func TestOrderRepository_PostgresDuplicateAndMissing(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customers := NewCustomerRepository(store)
	repo := NewOrderRepository(store)

	now := time.Now().UTC().Round(time.Microsecond)
	if err := customers.Create(sampleCustomer("customer-1", "alice@example.com", now)); err != nil {
		t.Fatalf("create customer: %v", err)
	}

	order := sampleOrder("order-1", "customer-1", now)
	if err := repo.Create(order); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := repo.Create(order); !errors.Is(err, domain.ErrOrderExists) {
		t.Fatalf("expected ErrOrderExists, got %v", err)
	}

	if _, err := repo.Get("order-missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestCustomerRepository_Postgres(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCustomerRepository(store)

	now := time.Now().UTC().Round(time.Microsecond)
	if err := repo.Create(sampleCustomer("customer-1", "alice@example.com", now)); err != nil {
		t.Fatalf("create customer: %v", err)
	}

	byID, err := repo.FindByID("customer-1")
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Fatalf("unexpected customer %+v", byID)
	}

	byEmail, err := repo.FindByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byEmail.ID != "customer-1" {
		t.Fatalf("unexpected customer %+v", byEmail)
	}

	if _, err := repo.FindByID("customer-missing"); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}

	if err := repo.Create(sampleCustomer("customer-2", "alice@example.com", now)); !errors.Is(err, domain.ErrCustomerEmailTaken) {
		t.Fatalf("expected ErrCustomerEmailTaken, got %v", err)
	}
}

func TestOutboxRepository_Postgres(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store)

	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "order-1",
		EventType:     "order.created",
		Payload:       []byte(`{"order_id":"order-1"}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != msg.ID {
		t.Fatalf("unexpected pending %+v", pending)
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 1 || stats.OldestPendingAt.IsZero() {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if err := repo.MarkSent(msg.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	pending, err = repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty pending, got %d", len(pending))
	}

	if err := repo.MarkSent("missing"); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish, got %v", err)
	}
}
