package domain

import (
	"strings"
	"time"
)

// Customer описывает покупателя, от имени которого создаются заказы.
type Customer struct {
	ID string
	// Name — отображаемое имя покупателя.
	Name string
	// Email — уникальный адрес; по нему отсекаются повторные регистрации.
	Email     string
	CreatedAt time.Time
}

// ValidateInvariants проверяет базовые инварианты покупателя.
func (c *Customer) ValidateInvariants() []error {
	var errs []error

	if c.Name == "" {
		errs = append(errs, ErrCustomerNameRequired)
	}
	if c.Email == "" {
		errs = append(errs, ErrCustomerEmailRequired)
	} else if !strings.Contains(c.Email, "@") {
		errs = append(errs, ErrCustomerEmailInvalid)
	}

	return errs
}
