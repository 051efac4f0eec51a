package pricing

import "fmt"

// ErrNotFound is returned when a vehicle, variant or configuration document is absent.
type ErrNotFound struct {
	Message string
}

func (e ErrNotFound) Error() string {
	return e.Message
}

// ErrInvalidInput is returned when a request is outside accepted bounds or
// lacks the identity needed to price it.
type ErrInvalidInput struct {
	Field  string
	Reason string
}

func (e ErrInvalidInput) Error() string {
	return e.Reason
}

// ErrDataIntegrity is returned when catalog data is inconsistent, e.g. a
// linked-variant chain that points at a missing record or loops back on itself.
type ErrDataIntegrity struct {
	VariantID int64
	Reason    string
}

func (e ErrDataIntegrity) Error() string {
	return fmt.Sprintf("variant %d: %s", e.VariantID, e.Reason)
}
