package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
)

// Service управляет каталогом товаров.
type Service struct {
	products domain.ProductRepository
	outbox   domain.OutboxRepository
	logger   *log.Entry
}

// Option настраивает Service.
type Option func(*Service)

// WithOutbox подключает outbox для публикации событий каталога.
func WithOutbox(outbox domain.OutboxRepository) Option {
	return func(s *Service) {
		s.outbox = outbox
	}
}

// NewService конструирует сервис каталога.
func NewService(products domain.ProductRepository, logger *log.Entry, options ...Option) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "product-service")
	}
	s := &Service{
		products: products,
		logger:   logger,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// CreateProduct добавляет товар в каталог. Имя товара уникально: повторная
// регистрация того же имени возвращает ErrProductNameTaken.
func (s *Service) CreateProduct(ctx context.Context, name string, priceMinor int64, quantity int32) (domain.Product, error) {
	now := time.Now().UTC()
	product := domain.Product{
		ID:         uuid.NewString(),
		Name:       name,
		PriceMinor: priceMinor,
		Quantity:   quantity,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if errs := product.ValidateInvariants(); len(errs) > 0 {
		return domain.Product{}, errors.Join(errs...)
	}

	if _, err := s.products.FindByName(name); err == nil {
		return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrProductNameTaken, name)
	} else if !errors.Is(err, domain.ErrProductNotFound) {
		return domain.Product{}, fmt.Errorf("check product name: %w", err)
	}

	if err := s.products.Create(product); err != nil {
		if errors.Is(err, domain.ErrProductNameTaken) {
			return domain.Product{}, err
		}
		s.logger.WithError(err).WithField("product_name", name).Error("failed to persist product")
		return domain.Product{}, fmt.Errorf("persist product: %w", err)
	}

	s.enqueueCreatedEvent(product)

	s.logger.WithFields(log.Fields{
		"product_id":   product.ID,
		"product_name": product.Name,
	}).Info("product created")

	return product, nil
}

// FindByName возвращает товар по имени.
func (s *Service) FindByName(ctx context.Context, name string) (domain.Product, error) {
	return s.products.FindByName(name)
}

// FindAllByID возвращает существующие товары из запрошенного набора.
func (s *Service) FindAllByID(ctx context.Context, ids []string) ([]domain.Product, error) {
	return s.products.FindAllByID(ids)
}

func (s *Service) enqueueCreatedEvent(product domain.Product) {
	if s.outbox == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"event_type":  kafka.EventTypeProductCreated,
		"product_id":  product.ID,
		"name":        product.Name,
		"price_minor": product.PriceMinor,
		"quantity":    product.Quantity,
		"timestamp":   product.CreatedAt,
	})
	if err != nil {
		s.logger.WithError(err).Warn("failed to marshal product.created event")
		return
	}

	if _, err := s.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: "product",
		AggregateID:   product.ID,
		EventType:     string(kafka.EventTypeProductCreated),
		Payload:       payload,
	}); err != nil {
		s.logger.WithError(err).WithField("product_id", product.ID).Warn("failed to enqueue product.created event")
	}
}
