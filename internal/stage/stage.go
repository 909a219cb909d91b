// Package stage projects an order status onto the storefront's fixed
// delivery progression: received → preparing → out for delivery → delivered,
// with cancellation as a terminal branch outside the sequence.
package stage

import "github.com/toledos-acai/api/internal/enum"

// Count is the number of ordered stages.
const Count = 4

// CancelledPosition marks the terminal cancelled branch; it is not part of
// the ordered sequence.
const CancelledPosition = -1

// Step pairs a status value with its display label.
type Step struct {
	Status string `json:"status"`
	Label  string `json:"label"`
}

// Steps returns the ordered stages in display order.
func Steps() []Step {
	return []Step{
		{Status: enum.OrderStatusPending, Label: "Recebido"},
		{Status: enum.OrderStatusPreparing, Label: "Preparando"},
		{Status: enum.OrderStatusDelivery, Label: "Em Entrega"},
		{Status: enum.OrderStatusCompleted, Label: "Entregue"},
	}
}

// Position maps a status to its index in the ordered sequence. Cancelled
// maps to CancelledPosition; unrecognized statuses map to 0 so the
// projection is total and a malformed status still renders as "received".
func Position(status string) int {
	switch status {
	case enum.OrderStatusPending:
		return 0
	case enum.OrderStatusPreparing:
		return 1
	case enum.OrderStatusDelivery:
		return 2
	case enum.OrderStatusCompleted:
		return 3
	case enum.OrderStatusCancelled:
		return CancelledPosition
	default:
		return 0
	}
}

// IsCancelled reports whether the status is on the cancelled branch. The
// progress indicator is suppressed for cancelled orders.
func IsCancelled(status string) bool {
	return Position(status) == CancelledPosition
}

// Progress is the fill fraction for the progress bar: position/(Count-1).
// Cancelled orders report 0; callers decide via IsCancelled whether to show
// the bar at all.
func Progress(status string) float64 {
	p := Position(status)
	if p < 0 {
		return 0
	}
	return float64(p) / float64(Count-1)
}

// Reached reports whether stage i has been passed or is current.
func Reached(i int, status string) bool {
	p := Position(status)
	return p >= 0 && i <= p
}

// Current reports whether stage i is the active one.
func Current(i int, status string) bool {
	p := Position(status)
	return p >= 0 && i == p
}
