package models

type BookingStatus string

const (
	StatusPending       BookingStatus = "pending"
	StatusConfirmed     BookingStatus = "confirmed"
	StatusAssigned      BookingStatus = "assigned"
	StatusCompleted     BookingStatus = "completed"
	StatusCanceled      BookingStatus = "canceled"
	StatusExpired       BookingStatus = "expired"
	StatusPaymentFailed BookingStatus = "payment_failed"
)

func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// bookingTransitions lists the documented lifecycle edges. It is advisory:
// callers log a warning for anything outside it but the write still goes
// through.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:       {StatusConfirmed, StatusAssigned, StatusCanceled, StatusExpired, StatusPaymentFailed},
	StatusConfirmed:     {StatusAssigned, StatusCanceled},
	StatusAssigned:      {StatusCompleted, StatusCanceled},
	StatusCompleted:     {},
	StatusCanceled:      {},
	StatusExpired:       {},
	StatusPaymentFailed: {},
}

// IsDocumentedTransition reports whether from -> to is a known lifecycle edge.
// Re-setting the same status counts as documented.
func IsDocumentedTransition(from, to BookingStatus) bool {
	if from == to {
		return true
	}
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
