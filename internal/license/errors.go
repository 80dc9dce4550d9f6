package license

import (
	"fmt"
	"strings"
)

// AttributeError reports a malformed seller-side product configuration.
// It is not retryable; the catalog has to be fixed by an operator.
type AttributeError struct {
	Product string
	Reason  string
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("invalid licensing attributes for product %s: %s", e.Product, e.Reason)
}

// ParentSubscriptionNotFoundError reports an add-on item whose parent
// subscription line item is missing from the same event, which points at an
// upstream event-ordering anomaly.
type ParentSubscriptionNotFoundError struct {
	SubscriptionID string
}

func (e *ParentSubscriptionNotFoundError) Error() string {
	return fmt.Sprintf("parent subscription %s not found in event items", e.SubscriptionID)
}

// ReconciliationError wraps a failure during event handling together with
// everything that did complete before it, so an operator can finish the
// event by hand without re-deriving state.
type ReconciliationError struct {
	EventType string
	EventID   string
	// Resolved user, empty when user resolution never happened or failed.
	UserID string
	// Past-tense verb for the affected licenses, e.g. "created".
	Action string
	// IDs of every license successfully affected before the failure.
	Affected []string
	Cause    error
}

func (e *ReconciliationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "could not process the %s webhook event with id %s. ", e.EventType, e.EventID)
	if e.UserID != "" {
		fmt.Fprintf(&b, "User ID: %s resolved. ", e.UserID)
	}
	if len(e.Affected) > 0 {
		fmt.Fprintf(&b, "Licenses %s: %s. ", e.Action, strings.Join(e.Affected, ", "))
	} else {
		fmt.Fprintf(&b, "No license %s. ", e.Action)
	}
	fmt.Fprintf(&b, "Failure reason: %v", e.Cause)
	return b.String()
}

func (e *ReconciliationError) Unwrap() error {
	return e.Cause
}
