package domain_test

import (
	"testing"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestProductValidateInvariants_Ok(t *testing.T) {
	product := domain.Product{ID: "product-1", Name: "Keyboard", PriceMinor: 4990, Quantity: 10}
	if errs := product.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestProductValidateInvariants_Violations(t *testing.T) {
	product := domain.Product{PriceMinor: -1, Quantity: -5}
	errs := product.ValidateInvariants()
	if !containsErr(errs, domain.ErrProductNameRequired) {
		t.Fatalf("expected ErrProductNameRequired, got %v", errs)
	}
	if !containsErr(errs, domain.ErrProductPriceNegative) {
		t.Fatalf("expected ErrProductPriceNegative, got %v", errs)
	}
	if !containsErr(errs, domain.ErrProductQuantityNegative) {
		t.Fatalf("expected ErrProductQuantityNegative, got %v", errs)
	}
}

func TestCustomerValidateInvariants(t *testing.T) {
	customer := domain.Customer{ID: "customer-1", Name: "Alice", Email: "alice@example.com"}
	if errs := customer.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}

	customer = domain.Customer{ID: "customer-2", Name: "Bob", Email: "not-an-email"}
	errs := customer.ValidateInvariants()
	if !containsErr(errs, domain.ErrCustomerEmailInvalid) {
		t.Fatalf("expected ErrCustomerEmailInvalid, got %v", errs)
	}
}
