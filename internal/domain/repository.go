package domain

// ProductRepository описывает требования к хранилищу товаров.
type ProductRepository interface {
	// Create сохраняет новый товар. Уникальность имени обеспечивает хранилище.
	Create(product Product) error
	// FindByName возвращает товар по имени или ErrProductNotFound, если его нет.
	FindByName(name string) (Product, error)
	// FindAllByID возвращает только существующие товары из запрошенного набора.
	// Отсутствие отдельных идентификаторов ошибкой не считается; ошибка
	// зарезервирована за сбоем самого механизма выборки.
	FindAllByID(ids []string) ([]Product, error)
	// UpdateQuantity списывает запрошенные количества с остатков и возвращает
	// обновлённые товары. Если итоговый остаток любого товара опускается до
	// нуля или ниже, весь батч отклоняется с OutOfStockError и ничего не
	// сохраняется. Последовательность чтение-списание-запись выполняется
	// атомарно относительно конкурентных вызовов.
	UpdateQuantity(requests []ProductQuantity) ([]Product, error)
}

// CustomerRepository описывает требования к хранилищу покупателей.
type CustomerRepository interface {
	// Create сохраняет нового покупателя.
	Create(customer Customer) error
	// FindByID возвращает покупателя или ErrCustomerNotFound, если его нет.
	FindByID(id string) (Customer, error)
	// FindByEmail возвращает покупателя по email или ErrCustomerNotFound.
	FindByEmail(email string) (Customer, error)
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ вместе с позициями.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListByCustomer возвращает заказы клиента с опциональным ограничением на количество.
	ListByCustomer(customerID string, limit int) ([]Order, error)
}
