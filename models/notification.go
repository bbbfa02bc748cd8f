package models

// NotificationKind identifies why subscribers are emailed
type NotificationKind string

const (
	NotificationNone          NotificationKind = ""
	NotificationWelcome       NotificationKind = "WELCOME"
	NotificationLowestPrice   NotificationKind = "LOWEST_PRICE"
	NotificationChangeOfStock NotificationKind = "CHANGE_OF_STOCK"
	NotificationThresholdMet  NotificationKind = "THRESHOLD_MET"
)

// IsNone returns true when no notification should be sent
func (k NotificationKind) IsNone() bool {
	return k == NotificationNone
}

func (k NotificationKind) String() string {
	if k == NotificationNone {
		return "NONE"
	}
	return string(k)
}

// DeliveryResult records the outcome of sending one notification to one recipient
type DeliveryResult struct {
	Recipient string `json:"recipient"`
	Err       error  `json:"-"`
}

// Delivered returns true if the send succeeded
func (d DeliveryResult) Delivered() bool {
	return d.Err == nil
}

// ProductResult is the per-product outcome of a pipeline run.
// Product is nil when the product was skipped.
type ProductResult struct {
	SourceID     string           `json:"source_id"`
	Product      *TrackedProduct  `json:"product,omitempty"`
	Notification NotificationKind `json:"notification,omitempty"`
	Deliveries   []DeliveryResult `json:"deliveries,omitempty"`
	NotifyErr    error            `json:"-"`
	Err          error            `json:"-"`
}

// Skipped returns true if the product was not updated in this run
func (r ProductResult) Skipped() bool {
	return r.Product == nil
}

// FailedDeliveries counts recipients whose send failed
func (r ProductResult) FailedDeliveries() int {
	failed := 0
	for _, d := range r.Deliveries {
		if !d.Delivered() {
			failed++
		}
	}
	return failed
}
