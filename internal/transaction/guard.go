package transaction

import "ms-transactions/internal/models"

// Intent is the mutation a caller wants to apply to an existing transaction.
type Intent int

const (
	IntentUpdate Intent = iota
	IntentDelete
)

func (i Intent) String() string {
	switch i {
	case IntentUpdate:
		return "UPDATE"
	case IntentDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// CheckTransition validates a mutation against the status of the stored record.
// CAPTURED is terminal for both intents; an update may only move to CAPTURED
// from AUTHORIZED. proposed is ignored for IntentDelete.
func CheckTransition(intent Intent, existing, proposed models.PaymentStatus) error {
	if existing == models.StatusCaptured {
		if intent == IntentDelete {
			return ErrCannotDeleteCaptured
		}
		return ErrCannotModifyCaptured
	}

	if intent == IntentUpdate && proposed == models.StatusCaptured && existing != models.StatusAuthorized {
		return ErrCannotCaptureUnauthorized
	}

	return nil
}
