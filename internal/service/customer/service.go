package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// Service управляет реестром покупателей.
type Service struct {
	customers domain.CustomerRepository
	logger    *log.Entry
}

// NewService конструирует сервис покупателей.
func NewService(customers domain.CustomerRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "customer-service")
	}
	return &Service{
		customers: customers,
		logger:    logger,
	}
}

// CreateCustomer регистрирует покупателя. Email уникален: повторная
// регистрация того же адреса возвращает ErrCustomerEmailTaken.
func (s *Service) CreateCustomer(ctx context.Context, name, email string) (domain.Customer, error) {
	customer := domain.Customer{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}

	if errs := customer.ValidateInvariants(); len(errs) > 0 {
		return domain.Customer{}, errors.Join(errs...)
	}

	if _, err := s.customers.FindByEmail(email); err == nil {
		return domain.Customer{}, fmt.Errorf("%w: %s", domain.ErrCustomerEmailTaken, email)
	} else if !errors.Is(err, domain.ErrCustomerNotFound) {
		return domain.Customer{}, fmt.Errorf("check customer email: %w", err)
	}

	if err := s.customers.Create(customer); err != nil {
		if errors.Is(err, domain.ErrCustomerEmailTaken) {
			return domain.Customer{}, err
		}
		s.logger.WithError(err).WithField("email", email).Error("failed to persist customer")
		return domain.Customer{}, fmt.Errorf("persist customer: %w", err)
	}

	s.logger.WithFields(log.Fields{
		"customer_id": customer.ID,
		"email":       customer.Email,
	}).Info("customer created")

	return customer, nil
}

// FindByID возвращает покупателя по идентификатору.
func (s *Service) FindByID(ctx context.Context, id string) (domain.Customer, error) {
	return s.customers.FindByID(id)
}
