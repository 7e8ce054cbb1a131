package customer

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

func testLogger() *log.Entry {
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return logger.WithField("component", "customer-service-test")
}

func TestCreateCustomer(t *testing.T) {
	svc := NewService(memory.NewCustomerRepository(), testLogger())

	got, err := svc.CreateCustomer(context.Background(), "Ann", "ann@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, got.ID)
	require.Equal(t, "Ann", got.Name)

	found, err := svc.FindByID(context.Background(), got.ID)
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", found.Email)
}

func TestCreateCustomer_DuplicateEmail(t *testing.T) {
	svc := NewService(memory.NewCustomerRepository(), testLogger())

	_, err := svc.CreateCustomer(context.Background(), "Ann", "ann@example.com")
	require.NoError(t, err)

	_, err = svc.CreateCustomer(context.Background(), "Another Ann", "ann@example.com")
	require.ErrorIs(t, err, domain.ErrCustomerEmailTaken)
}

func TestCreateCustomer_Validation(t *testing.T) {
	svc := NewService(memory.NewCustomerRepository(), testLogger())

	_, err := svc.CreateCustomer(context.Background(), "", "ann@example.com")
	require.ErrorIs(t, err, domain.ErrCustomerNameRequired)

	_, err = svc.CreateCustomer(context.Background(), "Ann", "")
	require.ErrorIs(t, err, domain.ErrCustomerEmailRequired)

	_, err = svc.CreateCustomer(context.Background(), "Ann", "not-an-email")
	require.ErrorIs(t, err, domain.ErrCustomerEmailInvalid)
}
