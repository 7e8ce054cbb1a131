package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// productRepositoryInMemory — простая in-memory реализация ProductRepository.
// Мьютекс хранилища сериализует последовательность чтение-списание-запись,
// закрывая гонку check-then-act между конкурентными списаниями остатков.
type productRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewProductRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewProductRepository() domain.ProductRepository {
	return &productRepositoryInMemory{
		items: make(map[string]domain.Product),
	}
}

// Create сохраняет новый товар, отклоняя занятые имена.
func (r *productRepositoryInMemory) Create(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Name == product.Name {
			return domain.ErrProductNameTaken
		}
	}
	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	r.items[product.ID] = product
	return nil
}

// FindByName возвращает товар по имени или ErrProductNotFound.
func (r *productRepositoryInMemory) FindByName(name string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, product := range r.items {
		if product.Name == name {
			return product, nil
		}
	}
	return domain.Product{}, domain.ErrProductNotFound
}

// FindAllByID возвращает только существующие товары; частичные промахи ошибкой не считаются.
func (r *productRepositoryInMemory) FindAllByID(ids []string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.findAllByIDLocked(ids), nil
}

// UpdateQuantity списывает запрошенные количества атомарно относительно других вызовов.
// Батч отклоняется целиком, если остаток любого товара опускается до нуля или ниже.
func (r *productRepositoryInMemory) UpdateQuantity(requests []domain.ProductQuantity) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(requests))
	for _, req := range requests {
		ids = append(ids, req.ProductID)
	}

	found := r.findAllByIDLocked(ids)

	now := time.Now().UTC()
	for i := range found {
		for _, req := range requests {
			if found[i].ID != req.ProductID {
				continue
			}
			found[i].Quantity -= req.Qty
			if found[i].Quantity <= 0 {
				// Ничего из батча ещё не сохранено: отклоняем целиком.
				return nil, &domain.OutOfStockError{ProductName: found[i].Name}
			}
			found[i].UpdatedAt = now
		}
	}

	for _, product := range found {
		r.items[product.ID] = product
	}

	return found, nil
}

// findAllByIDLocked предполагает удержание r.mu вызывающей стороной.
func (r *productRepositoryInMemory) findAllByIDLocked(ids []string) []domain.Product {
	result := make([]domain.Product, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if product, ok := r.items[id]; ok {
			result = append(result, product)
		}
	}
	return result
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
