package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/toledos-acai/api/internal/model"
	"go.uber.org/zap"
)

// CatalogStore defines the database methods needed by catalog handlers.
// Satisfied by *repository.Queries; narrow interface for testability.
type CatalogStore interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListProducts(ctx context.Context, categoryID uuid.UUID) ([]model.Product, error)
	ListAddonsForProduct(ctx context.Context, productID uuid.UUID) ([]model.Addon, error)
}

// CatalogHandler serves the public menu: categories, products and their
// add-ons. Catalog reads degrade to empty lists on storage errors so the
// storefront keeps rendering; the failure is logged, never surfaced.
type CatalogHandler struct {
	store  CatalogStore
	logger *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(store CatalogStore, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{store: store, logger: logger}
}

// RegisterRoutes registers catalog endpoints on the given Chi router.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.ListCategories)
	r.Get("/products", h.ListProducts)
	r.Get("/products/{id}/addons", h.ListAddons)
}

// --- Response types ---

type productResponse struct {
	ID          uuid.UUID `json:"id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	ImageURL    string    `json:"image_url"`
}

type addonResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price string    `json:"price"`
}

func toProductResponse(p model.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Description: p.Description,
		Price:       money(p.Price),
		ImageURL:    p.ImageURL,
	}
}

func toAddonResponse(a model.Addon) addonResponse {
	return addonResponse{ID: a.ID, Name: a.Name, Price: money(a.Price)}
}

// --- Handlers ---

// ListCategories returns all menu categories in display order.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("list categories", zap.Error(err))
		writeJSON(w, http.StatusOK, []model.Category{})
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

// ListProducts returns active products, optionally filtered by the
// ?category= query param.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	categoryID := uuid.Nil
	if raw := r.URL.Query().Get("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
			return
		}
		categoryID = id
	}

	products, err := h.store.ListProducts(r.Context(), categoryID)
	if err != nil {
		h.logger.Error("list products", zap.Error(err))
		writeJSON(w, http.StatusOK, []productResponse{})
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListAddons returns the add-ons available for a product.
func (h *CatalogHandler) ListAddons(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	addons, err := h.store.ListAddonsForProduct(r.Context(), productID)
	if err != nil {
		h.logger.Error("list addons", zap.Error(err), zap.String("product_id", productID.String()))
		writeJSON(w, http.StatusOK, []addonResponse{})
		return
	}

	resp := make([]addonResponse, len(addons))
	for i, a := range addons {
		resp[i] = toAddonResponse(a)
	}
	writeJSON(w, http.StatusOK, resp)
}
