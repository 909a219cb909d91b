package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/toledos-acai/api/internal/service"
	"github.com/toledos-acai/api/internal/ws"
	"go.uber.org/zap"
)

// CheckoutServicer defines the service methods needed by the checkout
// handler. Satisfied by *service.CheckoutService; narrow interface for
// testability.
type CheckoutServicer interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
}

// Broadcaster is the slice of the ws hub the checkout handler uses.
type Broadcaster interface {
	BroadcastAdmin(event ws.Event)
}

// CheckoutHandler turns the device's cart into a persisted order. The cart
// is cleared only after the order commits; any failure leaves the cart
// intact so the customer can retry.
type CheckoutHandler struct {
	svc    CheckoutServicer
	cart   *CartHandler
	hub    Broadcaster
	logger *zap.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(svc CheckoutServicer, cartHandler *CartHandler, hub Broadcaster, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, cart: cartHandler, hub: hub, logger: logger}
}

// RegisterRoutes registers the checkout endpoint on the given Chi router.
func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Post("/checkout", h.Checkout)
}

// --- Request / Response types ---

type checkoutRequest struct {
	FullName      string `json:"full_name"`
	Phone         string `json:"phone"`
	Cep           string `json:"cep"`
	Street        string `json:"street"`
	Number        string `json:"number"`
	District      string `json:"district"`
	PaymentMethod string `json:"payment_method"`
}

type checkoutResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Total   string `json:"total"`
}

// --- Handlers ---

// Checkout validates the delivery form, converts the cart into an order
// and clears the cart on success.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	c := h.cart.loadCart(w, r)

	result, err := h.svc.Checkout(r.Context(), service.CheckoutRequest{
		FullName:      req.FullName,
		Phone:         req.Phone,
		Cep:           req.Cep,
		Street:        req.Street,
		Number:        req.Number,
		District:      req.District,
		PaymentMethod: req.PaymentMethod,
		Lines:         c.Lines(),
	})
	if err != nil {
		if service.IsValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		h.logger.Error("checkout", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not place order, please try again"})
		return
	}

	// Order is committed, drop the cart.
	c.Clear()

	payload, err := json.Marshal(map[string]string{
		"id":     result.Order.ID.String(),
		"status": result.Order.Status,
		"total":  money(result.Order.Total),
	})
	if err == nil {
		h.hub.BroadcastAdmin(ws.Event{Type: "order.created", Payload: payload})
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		OrderID: result.Order.ID.String(),
		Status:  result.Order.Status,
		Total:   money(result.Order.Total),
	})
}
