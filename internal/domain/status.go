package domain

import "strings"

// SaleStatus enumerates the fixed order lifecycle states.
type SaleStatus string

const (
	// SaleStatusPending is the initial state of every storefront order.
	SaleStatusPending SaleStatus = "PENDING"
	// SaleStatusPaid marks an order whose payment was confirmed.
	SaleStatusPaid SaleStatus = "PAID"
	// SaleStatusAccepted marks an order accepted for fulfilment.
	SaleStatusAccepted SaleStatus = "ACCEPTED"
	// SaleStatusShipping marks an order handed to shipping.
	SaleStatusShipping SaleStatus = "SHIPPING"
	// SaleStatusCompleted is terminal.
	SaleStatusCompleted SaleStatus = "COMPLETED"
	// SaleStatusCanceled is terminal.
	SaleStatusCanceled SaleStatus = "CANCELED"
)

var saleStatusTransitions = map[SaleStatus][]SaleStatus{
	SaleStatusPending:   {SaleStatusPaid, SaleStatusCanceled},
	SaleStatusPaid:      {SaleStatusAccepted, SaleStatusCanceled},
	SaleStatusAccepted:  {SaleStatusShipping, SaleStatusCanceled},
	SaleStatusShipping:  {SaleStatusCompleted, SaleStatusCanceled},
	SaleStatusCompleted: nil,
	SaleStatusCanceled:  nil,
}

// ParseSaleStatus normalizes raw input into a known status.
func ParseSaleStatus(raw string) (SaleStatus, bool) {
	status := SaleStatus(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := saleStatusTransitions[status]
	return status, ok
}

// CanTransition reports whether moving from current to target is allowed
// by the lifecycle table. Self-transitions are not allowed.
func CanTransition(current, target SaleStatus) bool {
	for _, next := range saleStatusTransitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func IsTerminal(status SaleStatus) bool {
	return len(saleStatusTransitions[status]) == 0
}
