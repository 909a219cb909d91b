package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/toledos-acai/api/internal/enum"
	"github.com/toledos-acai/api/internal/model"
	"github.com/toledos-acai/api/internal/repository"
	"github.com/toledos-acai/api/internal/stage"
	"github.com/toledos-acai/api/internal/ws"
	"go.uber.org/zap"
)

// OrderStore defines the database methods needed by order handlers.
// Satisfied by *repository.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrderDetail(ctx context.Context, id uuid.UUID) (model.OrderDetail, error)
	ListOrderDetails(ctx context.Context, limit int32) ([]model.OrderDetail, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) (model.Order, error)
}

// OrderBroadcaster is the slice of the ws hub the order handlers use.
type OrderBroadcaster interface {
	BroadcastOrder(orderID uuid.UUID, event ws.Event)
}

// OrderHandler serves the public order tracking page and the admin order
// dashboard.
type OrderHandler struct {
	store  OrderStore
	hub    OrderBroadcaster
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(store OrderStore, hub OrderBroadcaster, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{store: store, hub: hub, logger: logger}
}

// RegisterPublicRoutes registers the customer-facing tracking endpoint.
func (h *OrderHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/orders/{id}", h.Get)
}

// RegisterAdminRoutes registers the dashboard endpoints. Expected to be
// mounted behind the auth middleware.
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type updateStatusRequest struct {
	Status string `json:"status"`
}

type stageStepResponse struct {
	Status  string `json:"status"`
	Label   string `json:"label"`
	Reached bool   `json:"reached"`
	Current bool   `json:"current"`
}

type orderItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name"`
	ProductImageURL string          `json:"product_image_url"`
	Quantity        int32           `json:"quantity"`
	UnitPrice       string          `json:"unit_price"`
	Subtotal        string          `json:"subtotal"`
	Extras          []addonResponse `json:"extras"`
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	Status        string              `json:"status"`
	Cancelled     bool                `json:"cancelled"`
	Position      int                 `json:"position"`
	Progress      float64             `json:"progress"`
	Steps         []stageStepResponse `json:"steps"`
	Total         string              `json:"total"`
	PaymentMethod string              `json:"payment_method"`
	CreatedAt     time.Time           `json:"created_at"`
	Customer      model.Customer      `json:"customer"`
	Address       model.Address       `json:"address"`
	Items         []orderItemResponse `json:"items"`
}

func toOrderResponse(d model.OrderDetail) orderResponse {
	steps := make([]stageStepResponse, 0, stage.Count)
	for i, s := range stage.Steps() {
		steps = append(steps, stageStepResponse{
			Status:  s.Status,
			Label:   s.Label,
			Reached: stage.Reached(i, d.Status),
			Current: stage.Current(i, d.Status),
		})
	}

	items := make([]orderItemResponse, len(d.Items))
	for i, it := range d.Items {
		extras := make([]addonResponse, len(it.Extras))
		for j, a := range it.Extras {
			extras[j] = toAddonResponse(a)
		}
		items[i] = orderItemResponse{
			ID:              it.ID,
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			ProductImageURL: it.ProductImageURL,
			Quantity:        it.Quantity,
			UnitPrice:       money(it.UnitPrice),
			Subtotal:        money(it.UnitPrice.Mul(decimal.NewFromInt32(it.Quantity))),
			Extras:          extras,
		}
	}

	return orderResponse{
		ID:            d.ID,
		Status:        d.Status,
		Cancelled:     stage.IsCancelled(d.Status),
		Position:      stage.Position(d.Status),
		Progress:      stage.Progress(d.Status),
		Steps:         steps,
		Total:         money(d.Total),
		PaymentMethod: d.PaymentMethod,
		CreatedAt:     d.CreatedAt,
		Customer:      d.Customer,
		Address:       d.Address,
		Items:         items,
	}
}

// --- Handlers ---

// Get returns one order with its lifecycle projection. Public: order IDs
// are unguessable UUIDs handed out at checkout.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	detail, err := h.store.GetOrderDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		h.logger.Error("get order", zap.Error(err), zap.String("order_id", id.String()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(detail))
}

// List returns orders for the dashboard, newest first. ?limit= caps the
// page size (default 50).
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := int32(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = int32(n)
	}

	details, err := h.store.ListOrderDetails(r.Context(), limit)
	if err != nil {
		h.logger.Error("list orders", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(details))
	for i, d := range details {
		resp[i] = toOrderResponse(d)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus sets an order's status. Any valid status can be set from any
// other; the dashboard owns the workflow, the API just records it.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if !enum.IsValidOrderStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	order, err := h.store.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		h.logger.Error("update order status", zap.Error(err), zap.String("order_id", id.String()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"id":       order.ID.String(),
		"status":   order.Status,
		"position": stage.Position(order.Status),
		"progress": stage.Progress(order.Status),
	})
	if err == nil {
		h.hub.BroadcastOrder(order.ID, ws.Event{Type: "order.updated", Payload: payload})
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"id":     order.ID.String(),
		"status": order.Status,
	})
}
