package memory_test

import (
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

func newProduct(id, name string, quantity int32) domain.Product {
	now := time.Now().UTC()
	return domain.Product{
		ID:         id,
		Name:       name,
		PriceMinor: 1000,
		Quantity:   quantity,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestProductRepository_CreateFindByName(t *testing.T) {
	repo := memory.NewProductRepository()

	if err := repo.Create(newProduct("product-1", "Keyboard", 10)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.FindByName("Keyboard")
	if err != nil {
		t.Fatalf("find by name failed: %v", err)
	}
	if stored.ID != "product-1" {
		t.Fatalf("expected id product-1, got %s", stored.ID)
	}
}

func TestProductRepository_CreateDuplicateName(t *testing.T) {
	repo := memory.NewProductRepository()

	if err := repo.Create(newProduct("product-1", "Keyboard", 10)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(newProduct("product-2", "Keyboard", 5)); err != domain.ErrProductNameTaken {
		t.Fatalf("expected ErrProductNameTaken, got %v", err)
	}
}

func TestProductRepository_FindByNameMissing(t *testing.T) {
	repo := memory.NewProductRepository()
	if _, err := repo.FindByName("Mouse"); err != domain.ErrProductNotFound {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProductRepository_FindAllByIDSkipsMissing(t *testing.T) {
	repo := memory.NewProductRepository()
	if err := repo.Create(newProduct("product-1", "Keyboard", 10)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	found, err := repo.FindAllByID([]string{"product-1", "product-missing"})
	if err != nil {
		t.Fatalf("find all failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 product, got %d", len(found))
	}
	if found[0].ID != "product-1" {
		t.Fatalf("expected product-1, got %s", found[0].ID)
	}
}

func TestProductRepository_UpdateQuantityDecrements(t *testing.T) {
	repo := memory.NewProductRepository()
	if err := repo.Create(newProduct("product-1", "Keyboard", 10)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := repo.UpdateQuantity([]domain.ProductQuantity{{ProductID: "product-1", Qty: 3}})
	if err != nil {
		t.Fatalf("update quantity failed: %v", err)
	}
	if len(updated) != 1 || updated[0].Quantity != 7 {
		t.Fatalf("expected quantity 7, got %+v", updated)
	}

	stored, err := repo.FindAllByID([]string{"product-1"})
	if err != nil {
		t.Fatalf("find all failed: %v", err)
	}
	if stored[0].Quantity != 7 {
		t.Fatalf("expected persisted quantity 7, got %d", stored[0].Quantity)
	}
}

// Списание всего остатка считается нехваткой: итог 0 не допускается.
func TestProductRepository_UpdateQuantityExactStockIsOutOfStock(t *testing.T) {
	repo := memory.NewProductRepository()
	if err := repo.Create(newProduct("product-1", "Keyboard", 5)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err := repo.UpdateQuantity([]domain.ProductQuantity{{ProductID: "product-1", Qty: 5}})
	if !domain.IsOutOfStock(err) {
		t.Fatalf("expected out of stock error, got %v", err)
	}

	stored, findErr := repo.FindAllByID([]string{"product-1"})
	if findErr != nil {
		t.Fatalf("find all failed: %v", findErr)
	}
	if stored[0].Quantity != 5 {
		t.Fatalf("failed batch must not be persisted, got quantity %d", stored[0].Quantity)
	}
}

func TestProductRepository_UpdateQuantityAbortsWholeBatch(t *testing.T) {
	repo := memory.NewProductRepository()
	if err := repo.Create(newProduct("product-1", "Keyboard", 10)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(newProduct("product-2", "Mouse", 2)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err := repo.UpdateQuantity([]domain.ProductQuantity{
		{ProductID: "product-1", Qty: 3},
		{ProductID: "product-2", Qty: 2},
	})
	if !domain.IsOutOfStock(err) {
		t.Fatalf("expected out of stock error, got %v", err)
	}

	stored, findErr := repo.FindAllByID([]string{"product-1", "product-2"})
	if findErr != nil {
		t.Fatalf("find all failed: %v", findErr)
	}
	for _, product := range stored {
		switch product.ID {
		case "product-1":
			if product.Quantity != 10 {
				t.Fatalf("product-1 must keep quantity 10, got %d", product.Quantity)
			}
		case "product-2":
			if product.Quantity != 2 {
				t.Fatalf("product-2 must keep quantity 2, got %d", product.Quantity)
			}
		}
	}
}

// Регрессия гонки check-then-act: два конкурентных списания по 5 из остатка 5
// не могут завершиться успешно одновременно.
func TestProductRepository_UpdateQuantityConcurrent(t *testing.T) {
	repo := memory.NewProductRepository()
	if err := repo.Create(newProduct("product-1", "Keyboard", 5)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	const workers = 2
	var wg sync.WaitGroup
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateQuantity([]domain.ProductQuantity{{ProductID: "product-1", Qty: 5}})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	var succeeded int
	for err := range errCh {
		if err == nil {
			succeeded++
		} else if !domain.IsOutOfStock(err) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 0 {
		t.Fatalf("no decrement of 5 from stock 5 may succeed, got %d successes", succeeded)
	}
}

func TestProductRepository_UpdateQuantityConcurrentPartial(t *testing.T) {
	repo := memory.NewProductRepository()
	if err := repo.Create(newProduct("product-1", "Keyboard", 5)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	const workers = 4
	var wg sync.WaitGroup
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateQuantity([]domain.ProductQuantity{{ProductID: "product-1", Qty: 2}})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	var succeeded int
	for err := range errCh {
		if err == nil {
			succeeded++
		} else if !domain.IsOutOfStock(err) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// Из остатка 5 можно списать по 2 не больше двух раз: остаток 1.
	if succeeded != 2 {
		t.Fatalf("expected exactly 2 successful decrements, got %d", succeeded)
	}

	stored, err := repo.FindAllByID([]string{"product-1"})
	if err != nil {
		t.Fatalf("find all failed: %v", err)
	}
	if stored[0].Quantity != 1 {
		t.Fatalf("expected final quantity 1, got %d", stored[0].Quantity)
	}
}
