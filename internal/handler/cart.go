package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/toledos-acai/api/internal/cart"
	"github.com/toledos-acai/api/internal/model"
	"github.com/toledos-acai/api/internal/repository"
	"go.uber.org/zap"
)

// cartCookie identifies the device's cart across visits.
const cartCookie = "cart_key"

// CartStore defines the database methods needed by cart handlers.
// Satisfied by *repository.Queries; narrow interface for testability.
type CartStore interface {
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	ListAddonsForProduct(ctx context.Context, productID uuid.UUID) ([]model.Addon, error)
}

// CartHandler manages the per-device cart. Each device gets a cart key
// cookie on first contact; the cart itself lives in blob storage so a
// returning device finds its cart intact. Prices are snapshotted into the
// cart at add time and never refreshed.
type CartHandler struct {
	store   CartStore
	storage cart.Storage
	logger  *zap.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(store CartStore, storage cart.Storage, logger *zap.Logger) *CartHandler {
	return &CartHandler{store: store, storage: storage, logger: logger}
}

// RegisterRoutes registers cart endpoints on the given Chi router.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cart", h.Get)
	r.Post("/cart/items", h.AddItem)
	r.Patch("/cart/items/{id}", h.UpdateItem)
	r.Delete("/cart/items/{id}", h.RemoveItem)
	r.Delete("/cart", h.Clear)
}

// --- Request / Response types ---

type addItemRequest struct {
	ProductID string   `json:"product_id"`
	Quantity  int      `json:"quantity"`
	AddonIDs  []string `json:"addon_ids"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type cartLineResponse struct {
	ID        uuid.UUID       `json:"id"`
	Product   productResponse `json:"product"`
	Quantity  int             `json:"quantity"`
	Addons    []addonResponse `json:"addons"`
	UnitPrice string          `json:"unit_price"`
	Subtotal  string          `json:"subtotal"`
}

type cartResponse struct {
	Lines []cartLineResponse `json:"lines"`
	Total string             `json:"total"`
	Count int                `json:"count"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	lines := c.Lines()
	resp := cartResponse{
		Lines: make([]cartLineResponse, len(lines)),
		Total: money(c.Total()),
		Count: c.Count(),
	}
	for i, l := range lines {
		addons := make([]addonResponse, len(l.Addons))
		for j, a := range l.Addons {
			addons[j] = toAddonResponse(a)
		}
		resp.Lines[i] = cartLineResponse{
			ID:        l.ID,
			Product:   toProductResponse(l.Product),
			Quantity:  l.Quantity,
			Addons:    addons,
			UnitPrice: money(l.UnitPrice()),
			Subtotal:  money(l.Subtotal()),
		}
	}
	return resp
}

// loadCart resolves the device's cart from the cart key cookie, minting a
// new key when the device has none yet.
func (h *CartHandler) loadCart(w http.ResponseWriter, r *http.Request) *cart.Cart {
	var deviceID string
	if c, err := r.Cookie(cartCookie); err == nil && c.Value != "" {
		deviceID = c.Value
	} else {
		deviceID = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     cartCookie,
			Value:    deviceID,
			Path:     "/",
			Expires:  time.Now().Add(365 * 24 * time.Hour),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	key := fmt.Sprintf("%s-%s", cart.DefaultKey, deviceID)
	return cart.Load(h.storage, key)
}

// --- Handlers ---

// Get returns the device's current cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	c := h.loadCart(w, r)
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// AddItem adds a product with chosen add-ons to the cart. The product and
// add-on prices are looked up server-side and snapshotted into the new line;
// adding the same product twice yields two separate lines.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product_id"})
		return
	}

	product, err := h.store.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		h.logger.Error("get product", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	var addons []model.Addon
	if len(req.AddonIDs) > 0 {
		available, err := h.store.ListAddonsForProduct(r.Context(), productID)
		if err != nil {
			h.logger.Error("list addons", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		byID := make(map[uuid.UUID]model.Addon, len(available))
		for _, a := range available {
			byID[a.ID] = a
		}
		for _, raw := range req.AddonIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid addon id"})
				return
			}
			addon, ok := byID[id]
			if !ok {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "addon not available for this product"})
				return
			}
			addons = append(addons, addon)
		}
	}

	c := h.loadCart(w, r)
	c.Add(product, req.Quantity, addons)
	writeJSON(w, http.StatusCreated, toCartResponse(c))
}

// UpdateItem changes a line's quantity. Zero or negative removes the line.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	lineID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line ID"})
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	c := h.loadCart(w, r)
	c.SetQuantity(lineID, req.Quantity)
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// RemoveItem deletes a line from the cart. Removing an absent line is a
// no-op, not an error.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	lineID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line ID"})
		return
	}

	c := h.loadCart(w, r)
	c.Remove(lineID)
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// Clear empties the cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	c := h.loadCart(w, r)
	c.Clear()
	writeJSON(w, http.StatusOK, toCartResponse(c))
}
