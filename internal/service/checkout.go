package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/toledos-acai/api/internal/cart"
	"github.com/toledos-acai/api/internal/enum"
	"github.com/toledos-acai/api/internal/model"
	"github.com/toledos-acai/api/internal/repository"
)

// Errors returned by the checkout service.
var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrInvalidQuantity  = errors.New("quantity must be > 0")
	ErrInvalidPayment   = errors.New("invalid payment_method")
	ErrMissingFullName  = errors.New("full_name is required")
	ErrMissingPhone     = errors.New("phone is required")
	ErrMissingCep       = errors.New("cep is required")
	ErrMissingStreet    = errors.New("street is required")
	ErrMissingNumber    = errors.New("number is required")
	ErrMissingDistrict  = errors.New("district is required")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CheckoutStore defines the DB methods needed to submit an order.
// Satisfied by *repository.Queries (pool- or tx-bound).
type CheckoutStore interface {
	CreateCustomer(ctx context.Context, arg repository.CreateCustomerParams) (model.Customer, error)
	CreateAddress(ctx context.Context, arg repository.CreateAddressParams) (model.Address, error)
	CreateOrder(ctx context.Context, arg repository.CreateOrderParams) (model.Order, error)
	CreateOrderItem(ctx context.Context, arg repository.CreateOrderItemParams) (model.OrderItem, error)
}

// NewCheckoutStore creates a CheckoutStore from a DBTX (pool or tx), so the
// service can bind store instances to its transaction.
type NewCheckoutStore func(db repository.DBTX) CheckoutStore

// CheckoutRequest is the validated input for submitting an order: the cart
// snapshot plus the delivery/payment form.
type CheckoutRequest struct {
	FullName      string
	Phone         string
	Cep           string
	Street        string
	Number        string
	District      string
	PaymentMethod string
	Lines         []cart.Line
}

// CheckoutResult is the created order with its records.
type CheckoutResult struct {
	Customer model.Customer
	Address  model.Address
	Order    model.Order
	Items    []model.OrderItem
}

// CheckoutService turns a cart snapshot into a persisted order.
type CheckoutService struct {
	pool     TxBeginner
	newStore NewCheckoutStore
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(pool TxBeginner, newStore NewCheckoutStore) *CheckoutService {
	return &CheckoutService{pool: pool, newStore: newStore}
}

// Checkout validates the form, bakes unit prices from the cart snapshot and
// writes customer → address → order → order items in strict sequence. Any
// failure aborts the remaining steps and rolls everything back; the caller's
// cart is untouched until the whole sequence succeeds.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	// Prices come from the cart's product/add-on snapshots, not from the
	// current catalog: the baked unit price is a one-way snapshot and later
	// catalog changes must never reprice a submitted order.
	total := decimal.Zero
	for _, line := range req.Lines {
		total = total.Add(line.Subtotal())
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	customer, err := store.CreateCustomer(ctx, repository.CreateCustomerParams{
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	address, err := store.CreateAddress(ctx, repository.CreateAddressParams{
		CustomerID: customer.ID,
		Cep:        req.Cep,
		Street:     req.Street,
		Number:     req.Number,
		District:   req.District,
	})
	if err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	order, err := store.CreateOrder(ctx, repository.CreateOrderParams{
		CustomerID:    customer.ID,
		AddressID:     address.ID,
		Total:         total,
		PaymentMethod: req.PaymentMethod,
		Status:        enum.OrderStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var items []model.OrderItem
	for i, line := range req.Lines {
		item, err := store.CreateOrderItem(ctx, repository.CreateOrderItemParams{
			OrderID:   order.ID,
			ProductID: line.Product.ID,
			Quantity:  int32(line.Quantity),
			UnitPrice: line.UnitPrice(),
			Extras:    line.Addons,
		})
		if err != nil {
			return nil, fmt.Errorf("create order item [%d]: %w", i, err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CheckoutResult{
		Customer: customer,
		Address:  address,
		Order:    order,
		Items:    items,
	}, nil
}

func validateRequest(req CheckoutRequest) error {
	if len(req.Lines) == 0 {
		return ErrEmptyCart
	}
	for i, line := range req.Lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("lines[%d]: %w", i, ErrInvalidQuantity)
		}
	}
	if !enum.IsValidPaymentMethod(req.PaymentMethod) {
		return ErrInvalidPayment
	}
	switch {
	case req.FullName == "":
		return ErrMissingFullName
	case req.Phone == "":
		return ErrMissingPhone
	case req.Cep == "":
		return ErrMissingCep
	case req.Street == "":
		return ErrMissingStreet
	case req.Number == "":
		return ErrMissingNumber
	case req.District == "":
		return ErrMissingDistrict
	}
	return nil
}

// IsValidationError reports whether err is a client-input error that should
// map to 400 rather than 500.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidPayment) ||
		errors.Is(err, ErrMissingFullName) ||
		errors.Is(err, ErrMissingPhone) ||
		errors.Is(err, ErrMissingCep) ||
		errors.Is(err, ErrMissingStreet) ||
		errors.Is(err, ErrMissingNumber) ||
		errors.Is(err, ErrMissingDistrict)
}
