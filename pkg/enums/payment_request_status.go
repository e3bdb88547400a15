package enums

import "fmt"

// PaymentRequestStatus is the per-instruction outcome within a batch. Pending
// means the payment network accepted the submission; settlement callbacks are
// not tracked, so pending is terminal from this system's point of view.
type PaymentRequestStatus string

const (
	PaymentRequestStatusUnprocessed PaymentRequestStatus = "unprocessed"
	PaymentRequestStatusPending     PaymentRequestStatus = "pending"
	PaymentRequestStatusFailed      PaymentRequestStatus = "failed"
	PaymentRequestStatusDiscarded   PaymentRequestStatus = "discarded"
)

var validPaymentRequestStatuses = []PaymentRequestStatus{
	PaymentRequestStatusUnprocessed,
	PaymentRequestStatusPending,
	PaymentRequestStatusFailed,
	PaymentRequestStatusDiscarded,
}

// String implements fmt.Stringer.
func (p PaymentRequestStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PaymentRequestStatus) IsValid() bool {
	for _, candidate := range validPaymentRequestStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the instruction has reached a final outcome.
func (p PaymentRequestStatus) IsTerminal() bool {
	return p == PaymentRequestStatusPending || p == PaymentRequestStatusFailed || p == PaymentRequestStatusDiscarded
}

// ParsePaymentRequestStatus converts raw input into a PaymentRequestStatus.
func ParsePaymentRequestStatus(value string) (PaymentRequestStatus, error) {
	for _, candidate := range validPaymentRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment request status %q", value)
}
