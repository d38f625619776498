package sale

import "github.com/go-faster/errors"

// Status is the sale lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusFinalized Status = "FINALIZED"
)

// ErrInvalidStatus is returned for a status outside the lifecycle set.
var ErrInvalidStatus = errors.New("invalid sale status")

// ParseStatus validates a raw status value. The empty string means the caller
// expressed no preference and defaults to PENDING.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case "":
		return StatusPending, nil
	case StatusPending, StatusConfirmed, StatusCancelled, StatusFinalized:
		return Status(raw), nil
	default:
		return "", ErrInvalidStatus
	}
}

// DeriveStatus computes the effective status from the requested one and the
// presence of a payment proof. Without proof every sale is PENDING regardless
// of what was requested. With proof, a PENDING request is promoted to
// CONFIRMED; any other requested state stands.
func DeriveStatus(requested Status, proofPresent bool) Status {
	if !proofPresent {
		return StatusPending
	}
	if requested == StatusPending {
		return StatusConfirmed
	}
	return requested
}
