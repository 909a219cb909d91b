package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/toledos-acai/api/internal/handler"
	"github.com/toledos-acai/api/internal/model"
	"go.uber.org/zap"
)

// --- Mock store ---

type mockCatalogStore struct {
	categories []model.Category
	products   []model.Product
	addons     map[uuid.UUID][]model.Addon // keyed by product ID
	failAll    bool
}

func (m *mockCatalogStore) ListCategories(_ context.Context) ([]model.Category, error) {
	if m.failAll {
		return nil, errors.New("db down")
	}
	return m.categories, nil
}

func (m *mockCatalogStore) ListProducts(_ context.Context, categoryID uuid.UUID) ([]model.Product, error) {
	if m.failAll {
		return nil, errors.New("db down")
	}
	if categoryID == uuid.Nil {
		return m.products, nil
	}
	var result []model.Product
	for _, p := range m.products {
		if p.CategoryID == categoryID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockCatalogStore) ListAddonsForProduct(_ context.Context, productID uuid.UUID) ([]model.Addon, error) {
	if m.failAll {
		return nil, errors.New("db down")
	}
	return m.addons[productID], nil
}

// --- Helpers ---

func setupCatalogRouter(store *mockCatalogStore) *chi.Mux {
	h := handler.NewCatalogHandler(store, zap.NewNop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func price(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// --- Tests ---

func TestListCategories(t *testing.T) {
	store := &mockCatalogStore{
		categories: []model.Category{
			{ID: uuid.New(), Name: "Copos", Slug: "copos", SortOrder: 1},
			{ID: uuid.New(), Name: "Barcas", Slug: "barcas", SortOrder: 2},
		},
	}
	router := setupCatalogRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := decodeList(t, rr); len(got) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(got))
	}
}

func TestListCategoriesStorageFailureReturnsEmpty(t *testing.T) {
	router := setupCatalogRouter(&mockCatalogStore{failAll: true})

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	// Reads degrade to an empty menu, never an error page.
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on storage failure, got %d", rr.Code)
	}
	if got := decodeList(t, rr); len(got) != 0 {
		t.Fatalf("expected empty list, got %d entries", len(got))
	}
}

func TestListProducts(t *testing.T) {
	catA := uuid.New()
	catB := uuid.New()
	store := &mockCatalogStore{
		products: []model.Product{
			{ID: uuid.New(), CategoryID: catA, Name: "Açaí 300ml", Price: price("12.00")},
			{ID: uuid.New(), CategoryID: catA, Name: "Açaí 500ml", Price: price("15.00")},
			{ID: uuid.New(), CategoryID: catB, Name: "Barca P", Price: price("25.00")},
		},
	}
	router := setupCatalogRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	all := decodeList(t, rr)
	if len(all) != 3 {
		t.Fatalf("expected 3 products, got %d", len(all))
	}
	if all[0]["price"] != "12.00" {
		t.Errorf("prices must be two-decimal strings, got %v", all[0]["price"])
	}

	req = httptest.NewRequest(http.MethodGet, "/products?category="+catA.String(), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if filtered := decodeList(t, rr); len(filtered) != 2 {
		t.Fatalf("expected 2 products in category, got %d", len(filtered))
	}
}

func TestListProductsInvalidCategory(t *testing.T) {
	router := setupCatalogRouter(&mockCatalogStore{})

	req := httptest.NewRequest(http.MethodGet, "/products?category=not-a-uuid", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestListProductsStorageFailureReturnsEmpty(t *testing.T) {
	router := setupCatalogRouter(&mockCatalogStore{failAll: true})

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on storage failure, got %d", rr.Code)
	}
	if got := decodeList(t, rr); len(got) != 0 {
		t.Fatalf("expected empty list, got %d entries", len(got))
	}
}

func TestListAddons(t *testing.T) {
	productID := uuid.New()
	store := &mockCatalogStore{
		addons: map[uuid.UUID][]model.Addon{
			productID: {
				{ID: uuid.New(), Name: "Granola", Price: price("2.00")},
				{ID: uuid.New(), Name: "Leite Condensado", Price: price("1.50")},
			},
		},
	}
	router := setupCatalogRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/products/"+productID.String()+"/addons", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	addons := decodeList(t, rr)
	if len(addons) != 2 {
		t.Fatalf("expected 2 addons, got %d", len(addons))
	}
	if addons[0]["price"] != "2.00" {
		t.Errorf("addon price: got %v, want 2.00", addons[0]["price"])
	}
}

func TestListAddonsInvalidProductID(t *testing.T) {
	router := setupCatalogRouter(&mockCatalogStore{})

	req := httptest.NewRequest(http.MethodGet, "/products/nope/addons", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
