package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCustomerNotFound возвращается, если покупатель не найден или lookup завершился ошибкой.
	// Вызывающий видит единую ошибку независимо от причины.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrEmptyOrder возвращается, если батч-выборка товаров не вернула ни одной записи.
	ErrEmptyOrder = errors.New("order must contain at least one product")
	// ErrProductNotFound возвращается при сбое механизма выборки товаров,
	// а не при отсутствии отдельных идентификаторов в результате.
	ErrProductNotFound = errors.New("product not found")
	// ErrOutOfStock — сигнальная ошибка нехватки остатка; конкретный товар
	// переносит OutOfStockError.
	ErrOutOfStock = errors.New("product out of stock")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists возвращается при попытке повторно создать заказ с тем же ID.
	ErrOrderExists = errors.New("order already exists")
	// ErrProductNameTaken возвращается при попытке создать товар с занятым именем.
	ErrProductNameTaken = errors.New("product with this name already exists")
	// ErrCustomerEmailTaken возвращается при попытке зарегистрировать занятый email.
	ErrCustomerEmailTaken = errors.New("customer with this email already exists")

	// Ошибка отсутствующего идентификатора клиента.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отсутствия хотя бы одного товара в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("amount_minor must be non-negative")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order amount does not match items sum")

	// Ошибка отсутствующего имени товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка отрицательной цены товара.
	ErrProductPriceNegative = errors.New("product price must be non-negative")
	// Ошибка отрицательного остатка товара.
	ErrProductQuantityNegative = errors.New("product quantity must be non-negative")

	// Ошибка отсутствующего имени покупателя.
	ErrCustomerNameRequired = errors.New("customer name is required")
	// Ошибка отсутствующего email покупателя.
	ErrCustomerEmailRequired = errors.New("customer email is required")
	// Ошибка синтаксически некорректного email.
	ErrCustomerEmailInvalid = errors.New("customer email is invalid")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// OutOfStockError уточняет, какого именно товара не хватило при списании остатка.
type OutOfStockError struct {
	ProductName string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %s out of stock", e.ProductName)
}

// Unwrap позволяет сопоставлять ошибку с ErrOutOfStock через errors.Is.
func (e *OutOfStockError) Unwrap() error {
	return ErrOutOfStock
}

// IsOutOfStock проверяет, является ли ошибка нехваткой остатка.
func IsOutOfStock(err error) bool {
	return errors.Is(err, ErrOutOfStock)
}
