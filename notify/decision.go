// Package notify decides which notification a price event warrants, renders
// the email for it and delivers it.
package notify

import (
	"github.com/shopspring/decimal"

	"pricewatch/models"
)

// DefaultDiscountThreshold is the discount percentage that triggers THRESHOLD_MET
const DefaultDiscountThreshold = 40

// Policy holds the tunable decision constants
type Policy struct {
	DiscountThreshold decimal.Decimal
}

// DefaultPolicy returns a policy with the 40% discount threshold
func DefaultPolicy() Policy {
	return Policy{DiscountThreshold: decimal.NewFromInt(DefaultDiscountThreshold)}
}

// Decide compares a fresh snapshot against the stored product. previousLowest
// must be the lowest price of the history before the new observation was
// appended. Rules are evaluated in priority order and the first match wins.
func Decide(snapshot models.ProductSnapshot, previous models.TrackedProduct, previousLowest decimal.Decimal, policy Policy) models.NotificationKind {
	if snapshot.CurrentPrice.LessThan(previousLowest) {
		return models.NotificationLowestPrice
	}

	if !snapshot.IsOutOfStock && previous.IsOutOfStock {
		return models.NotificationChangeOfStock
	}

	if snapshot.DiscountRate.GreaterThanOrEqual(policy.DiscountThreshold) {
		return models.NotificationThresholdMet
	}

	return models.NotificationNone
}
