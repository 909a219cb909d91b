// Package handler implements the HTTP endpoints of the storefront API.
package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/shopspring/decimal"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// money renders a decimal amount with two places, as the storefront displays
// prices. Amounts travel as JSON strings so clients never touch floats.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
