package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/toledos-acai/api/internal/cart"
	"github.com/toledos-acai/api/internal/handler"
	"github.com/toledos-acai/api/internal/model"
	"github.com/toledos-acai/api/internal/service"
	"github.com/toledos-acai/api/internal/ws"
	"go.uber.org/zap"
)

// --- Mocks ---

type mockCheckoutService struct {
	checkoutFn func(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
	requests   []service.CheckoutRequest
}

func (m *mockCheckoutService) Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error) {
	m.requests = append(m.requests, req)
	return m.checkoutFn(ctx, req)
}

type mockBroadcaster struct {
	events []ws.Event
}

func (m *mockBroadcaster) BroadcastAdmin(event ws.Event) {
	m.events = append(m.events, event)
}

// --- Helpers ---

type checkoutFixture struct {
	*cartFixture
	svc *mockCheckoutService
	hub *mockBroadcaster
}

func setupCheckoutRouter(t *testing.T, svc *mockCheckoutService) *checkoutFixture {
	t.Helper()
	store := newMockCartStore()
	hub := &mockBroadcaster{}
	cartHandler := handler.NewCartHandler(store, cart.NewMemoryStorage(), zap.NewNop())
	checkoutHandler := handler.NewCheckoutHandler(svc, cartHandler, hub, zap.NewNop())
	r := chi.NewRouter()
	cartHandler.RegisterRoutes(r)
	checkoutHandler.RegisterRoutes(r)
	return &checkoutFixture{
		cartFixture: &cartFixture{router: r, store: store},
		svc:         svc,
		hub:         hub,
	}
}

func validCheckoutBody() map[string]interface{} {
	return map[string]interface{}{
		"full_name":      "Maria Silva",
		"phone":          "11999990000",
		"cep":            "01001-000",
		"street":         "Rua das Flores",
		"number":         "123",
		"district":       "Centro",
		"payment_method": "pix",
	}
}

func okCheckout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error) {
	return &service.CheckoutResult{
		Order: model.Order{
			ID:            uuid.New(),
			Total:         price("27.00"),
			PaymentMethod: req.PaymentMethod,
			Status:        "pending",
		},
	}, nil
}

// --- Tests ---

func TestCheckoutSuccessClearsCartAndBroadcasts(t *testing.T) {
	svc := &mockCheckoutService{checkoutFn: okCheckout}
	f := setupCheckoutRouter(t, svc)
	p, _ := f.seedProduct("13.50")

	f.do(t, http.MethodPost, "/cart/items", map[string]interface{}{
		"product_id": p.ID.String(),
		"quantity":   2,
	})

	rr := f.do(t, http.MethodPost, "/checkout", validCheckoutBody())
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeCart(t, rr)
	if resp["status"] != "pending" {
		t.Errorf("status: got %v, want pending", resp["status"])
	}
	if resp["total"] != "27.00" {
		t.Errorf("total: got %v, want 27.00", resp["total"])
	}

	// The service saw the cart's lines.
	if len(svc.requests) != 1 || len(svc.requests[0].Lines) != 1 {
		t.Fatalf("service should receive the cart lines, got %+v", svc.requests)
	}

	// Cart is empty afterwards.
	rr = f.do(t, http.MethodGet, "/cart", nil)
	if len(cartLines(t, decodeCart(t, rr))) != 0 {
		t.Error("cart must be cleared after a successful checkout")
	}

	// Admin dashboards heard about the new order.
	if len(f.hub.events) != 1 || f.hub.events[0].Type != "order.created" {
		t.Fatalf("expected one order.created broadcast, got %+v", f.hub.events)
	}
}

func TestCheckoutValidationErrorKeepsCart(t *testing.T) {
	svc := &mockCheckoutService{
		checkoutFn: func(_ context.Context, _ service.CheckoutRequest) (*service.CheckoutResult, error) {
			return nil, service.ErrMissingPhone
		},
	}
	f := setupCheckoutRouter(t, svc)
	p, _ := f.seedProduct("13.50")

	f.do(t, http.MethodPost, "/cart/items", map[string]interface{}{
		"product_id": p.ID.String(),
		"quantity":   1,
	})

	body := validCheckoutBody()
	body["phone"] = ""
	rr := f.do(t, http.MethodPost, "/checkout", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	// The cart survives the failure.
	rr = f.do(t, http.MethodGet, "/cart", nil)
	if len(cartLines(t, decodeCart(t, rr))) != 1 {
		t.Error("cart must stay intact when checkout fails")
	}
	if len(f.hub.events) != 0 {
		t.Error("no broadcast on failed checkout")
	}
}

func TestCheckoutInfrastructureErrorKeepsCart(t *testing.T) {
	svc := &mockCheckoutService{
		checkoutFn: func(_ context.Context, _ service.CheckoutRequest) (*service.CheckoutResult, error) {
			return nil, errors.New("db down")
		},
	}
	f := setupCheckoutRouter(t, svc)
	p, _ := f.seedProduct("13.50")

	f.do(t, http.MethodPost, "/cart/items", map[string]interface{}{
		"product_id": p.ID.String(),
		"quantity":   1,
	})

	rr := f.do(t, http.MethodPost, "/checkout", validCheckoutBody())
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	resp := decodeCart(t, rr)
	if resp["error"] == "db down" {
		t.Error("internal error details must not leak to the client")
	}

	rr = f.do(t, http.MethodGet, "/cart", nil)
	if len(cartLines(t, decodeCart(t, rr))) != 1 {
		t.Error("cart must stay intact when checkout fails")
	}
}

func TestCheckoutInvalidBody(t *testing.T) {
	f := setupCheckoutRouter(t, &mockCheckoutService{checkoutFn: okCheckout})

	rr := f.do(t, http.MethodPost, "/checkout", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body, got %d", rr.Code)
	}
}
