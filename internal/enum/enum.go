package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusDelivery  = "delivery"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// ── Payment methods (CHECK constrained in DB) ──

const (
	PaymentMethodPix   = "pix"
	PaymentMethodCard  = "card"
	PaymentMethodMoney = "money"
)

// IsValidOrderStatus reports whether s is a known order status.
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusDelivery,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// IsValidPaymentMethod reports whether s is a known payment method.
func IsValidPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodPix, PaymentMethodCard, PaymentMethodMoney:
		return true
	}
	return false
}
