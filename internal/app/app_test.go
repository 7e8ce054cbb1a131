package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestRun_MemoryGracefulShutdown(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")

	cfg := DefaultConfig()
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.StorageDriver = StorageDriverMemory

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()

	err := Run(ctx, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRun_KafkaUnavailableContinues(t *testing.T) {
	// Недоступная Kafka отключает реле outbox, но не останавливает приложение.
	cfg := DefaultConfig()
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.StorageDriver = StorageDriverMemory
	cfg.KafkaBrokers = "invalid-broker:9999"

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()

	err := Run(ctx, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRun_InvalidStorageDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageDriver = "invalid-driver"
	cfg.MetricsAddr = "127.0.0.1:0"

	err := Run(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "unsupported storage driver") {
		t.Fatalf("expected unsupported storage driver error, got %v", err)
	}
}

func TestNewServices_MemoryOrderFlow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageDriver = StorageDriverMemory

	services, cleanup, err := NewServices(context.Background(), cfg, log.WithField("test", "services"))
	if err != nil {
		t.Fatalf("NewServices failed: %v", err)
	}
	defer cleanup()

	ctx := context.Background()

	customer, err := services.Customers.CreateCustomer(ctx, "Ann", "ann@example.com")
	if err != nil {
		t.Fatalf("CreateCustomer failed: %v", err)
	}

	product, err := services.Products.CreateProduct(ctx, "keyboard", 4500, 5)
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	order, err := services.Orders.CreateOrder(ctx, customer.ID, []domain.ProductQuantity{
		{ProductID: product.ID, Qty: 2},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if order.AmountMinor != 9000 {
		t.Fatalf("expected amount 9000, got %d", order.AmountMinor)
	}
}

func TestNewServices_RejectUnknownProducts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageDriver = StorageDriverMemory
	cfg.RejectUnknownProducts = true

	services, cleanup, err := NewServices(context.Background(), cfg, log.WithField("test", "services-strict"))
	if err != nil {
		t.Fatalf("NewServices failed: %v", err)
	}
	defer cleanup()

	ctx := context.Background()

	customer, err := services.Customers.CreateCustomer(ctx, "Bob", "bob@example.com")
	if err != nil {
		t.Fatalf("CreateCustomer failed: %v", err)
	}

	product, err := services.Products.CreateProduct(ctx, "mouse", 1500, 5)
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	_, err = services.Orders.CreateOrder(ctx, customer.ID, []domain.ProductQuantity{
		{ProductID: product.ID, Qty: 1},
		{ProductID: "ghost", Qty: 1},
	})
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound in strict mode, got %v", err)
	}
}
