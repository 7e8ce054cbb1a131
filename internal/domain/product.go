package domain

import "time"

// Product описывает товарную позицию каталога с текущим остатком на складе.
type Product struct {
	ID string
	// Name — уникальное имя товара в каталоге.
	Name string
	// PriceMinor — цена за единицу в минимальных денежных единицах (например, копейки).
	PriceMinor int64
	// Quantity — количество единиц товара, доступных на складе.
	Quantity  int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductQuantity связывает товар с запрошенным количеством.
// Используется и как позиция запроса на создание заказа, и как
// элемент батч-обновления остатков.
type ProductQuantity struct {
	ProductID string
	Qty       int32
}

// ValidateInvariants проверяет базовые инварианты товара и возвращает список замечаний.
func (p *Product) ValidateInvariants() []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if p.PriceMinor < 0 {
		errs = append(errs, ErrProductPriceNegative)
	}
	if p.Quantity < 0 {
		errs = append(errs, ErrProductQuantityNegative)
	}

	return errs
}
