package order

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
	"github.com/vladislavdragonenkov/shop/internal/metrics"
)

// Причины неудач для метрик.
const (
	failReasonCustomerNotFound = "customer_not_found"
	failReasonEmptyOrder       = "empty_order"
	failReasonProductNotFound  = "product_not_found"
	failReasonInvalidOrder     = "invalid_order"
	failReasonPersist          = "persist"
	failReasonOutOfStock       = "out_of_stock"
	failReasonStockUpdate      = "stock_update"
)

// Service оркестрирует сценарий создания заказа поверх доменных репозиториев.
type Service struct {
	orders    domain.OrderRepository
	products  domain.ProductRepository
	customers domain.CustomerRepository
	outbox    domain.OutboxRepository
	logger    *log.Entry
	metrics   *metrics.OrderMetrics

	// rejectUnknownProducts переключает обработку позиций, чьих товаров нет в
	// каталоге: по умолчанию такая позиция получает нулевую цену (поведение
	// унаследовано и зафиксировано тестами), в строгом режиме заказ отклоняется.
	rejectUnknownProducts bool
}

// Option настраивает Service.
type Option func(*Service)

// WithOutbox подключает transactional outbox для публикации событий заказа.
func WithOutbox(outbox domain.OutboxRepository) Option {
	return func(s *Service) {
		s.outbox = outbox
	}
}

// WithMetrics подключает метрики сценария создания заказа.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRejectUnknownProducts включает строгий режим: заказ с неизвестным
// товаром отклоняется вместо нулевой цены позиции.
func WithRejectUnknownProducts() Option {
	return func(s *Service) {
		s.rejectUnknownProducts = true
	}
}

// NewService конструирует сервис с зависимостями.
func NewService(
	orders domain.OrderRepository,
	products domain.ProductRepository,
	customers domain.CustomerRepository,
	logger *log.Entry,
	options ...Option,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	s := &Service{
		orders:    orders,
		products:  products,
		customers: customers,
		logger:    logger,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// CreateOrder создаёт заказ для покупателя из списка (товар, количество).
//
// Последовательность side-эффектов фиксирована: чтение покупателя, батч-чтение
// товаров, запись заказа, батч-списание остатков, постановка события в outbox.
// Если списание остатков завершается ошибкой, заказ остаётся сохранённым, а
// ошибка поднимается вызывающему.
func (s *Service) CreateOrder(ctx context.Context, customerID string, requested []domain.ProductQuantity) (domain.Order, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordCreateDuration(time.Since(start))
		}
	}()

	customer, err := s.customers.FindByID(customerID)
	if err != nil {
		// Единая ошибка независимо от причины сбоя lookup.
		s.logger.WithError(err).WithField("customer_id", customerID).Warn("customer lookup failed")
		s.recordFailure(failReasonCustomerNotFound)
		return domain.Order{}, domain.ErrCustomerNotFound
	}

	ids := make([]string, 0, len(requested))
	for _, req := range requested {
		ids = append(ids, req.ProductID)
	}

	found, err := s.products.FindAllByID(ids)
	if err != nil {
		s.logger.WithError(err).Warn("product batch lookup failed")
		s.recordFailure(failReasonProductNotFound)
		return domain.Order{}, err
	}
	if len(found) == 0 {
		s.recordFailure(failReasonEmptyOrder)
		return domain.Order{}, domain.ErrEmptyOrder
	}

	byID := make(map[string]domain.Product, len(found))
	for _, product := range found {
		byID[product.ID] = product
	}

	now := time.Now().UTC()
	items := make([]domain.OrderItem, 0, len(requested))
	var amountSum int64
	for _, req := range requested {
		product, ok := byID[req.ProductID]
		if !ok {
			if s.rejectUnknownProducts {
				s.recordFailure(failReasonProductNotFound)
				return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, req.ProductID)
			}
			// Неизвестный товар превращается в позицию с нулевой ценой.
			s.logger.WithField("product_id", req.ProductID).Warn("requested product missing from catalog, defaulting price to zero")
		}
		items = append(items, domain.OrderItem{
			ID:         uuid.NewString(),
			ProductID:  req.ProductID,
			Qty:        req.Qty,
			PriceMinor: product.PriceMinor,
			CreatedAt:  now,
		})
		amountSum += int64(req.Qty) * product.PriceMinor
	}

	order := domain.Order{
		ID:          uuid.NewString(),
		CustomerID:  customer.ID,
		AmountMinor: amountSum,
		Items:       items,
		CreatedAt:   now,
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		s.recordFailure(failReasonInvalidOrder)
		return domain.Order{}, errors.Join(errs...)
	}

	if err := s.orders.Create(order); err != nil {
		s.logger.WithError(err).Error("failed to persist order")
		s.recordFailure(failReasonPersist)
		return domain.Order{}, fmt.Errorf("persist order: %w", err)
	}

	if _, err := s.products.UpdateQuantity(requested); err != nil {
		// Заказ уже сохранён; компенсацию принимает вызывающий.
		s.logger.WithError(err).WithField("order_id", order.ID).Error("stock update failed after order persist")
		if domain.IsOutOfStock(err) {
			s.recordFailure(failReasonOutOfStock)
		} else {
			s.recordFailure(failReasonStockUpdate)
		}
		return domain.Order{}, err
	}
	if s.metrics != nil {
		s.metrics.RecordStockUpdate()
	}

	s.enqueueCreatedEvent(order)

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}
	s.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"customer_id":  order.CustomerID,
		"amount_minor": order.AmountMinor,
		"items":        len(order.Items),
	}).Info("order created")

	return order, nil
}

// enqueueCreatedEvent ставит событие order.created в outbox. Ошибка постановки
// не отменяет уже созданный заказ, поэтому только логируется.
func (s *Service) enqueueCreatedEvent(order domain.Order) {
	if s.outbox == nil {
		return
	}

	eventItems := make([]kafka.OrderEventItem, 0, len(order.Items))
	for _, item := range order.Items {
		eventItems = append(eventItems, kafka.OrderEventItem{
			ProductID:  item.ProductID,
			Qty:        item.Qty,
			PriceMinor: item.PriceMinor,
		})
	}

	payload, err := json.Marshal(kafka.NewOrderCreatedEvent(order.ID, order.CustomerID, order.AmountMinor, eventItems))
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to marshal order.created event")
		return
	}

	if _, err := s.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     string(kafka.EventTypeOrderCreated),
		Payload:       payload,
	}); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to enqueue order.created event")
		return
	}

	if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
}

func (s *Service) recordFailure(reason string) {
	if s.metrics != nil {
		s.metrics.RecordOrderFailed(reason)
	}
}
