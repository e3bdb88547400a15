package enums

import "fmt"

// BatchStatus tracks an uploaded batch through approval and processing.
type BatchStatus string

const (
	BatchStatusUnapproved BatchStatus = "unapproved"
	BatchStatusApproved   BatchStatus = "approved"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusProcessed  BatchStatus = "processed"
	BatchStatusDiscarded  BatchStatus = "discarded"
)

var validBatchStatuses = []BatchStatus{
	BatchStatusUnapproved,
	BatchStatusApproved,
	BatchStatusProcessing,
	BatchStatusProcessed,
	BatchStatusDiscarded,
}

// String implements fmt.Stringer.
func (b BatchStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is known.
func (b BatchStatus) IsValid() bool {
	for _, candidate := range validBatchStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (b BatchStatus) IsTerminal() bool {
	return b == BatchStatusProcessed || b == BatchStatusDiscarded
}

// ParseBatchStatus converts raw input into a BatchStatus.
func ParseBatchStatus(value string) (BatchStatus, error) {
	for _, candidate := range validBatchStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid batch status %q", value)
}
