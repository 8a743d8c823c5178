package finance

import (
	"errors"
	"fmt"
)

// Kind classifies settlement calculation failures. Every kind is an input
// validation or missing configuration problem: retrying with the same inputs
// can never succeed, the caller has to fix the data.
type Kind string

const (
	// KindInvalidFuelPrice indicates a non-positive contractual base fuel price.
	KindInvalidFuelPrice Kind = "INVALID_FUEL_PRICE"

	// KindEmptyLoadList indicates a trip cost was requested for zero loads.
	KindEmptyLoadList Kind = "EMPTY_LOAD_LIST"

	// KindMissingTariff indicates no applicable tariff rule was found,
	// including tariffs excluded by their validity window.
	KindMissingTariff Kind = "MISSING_TARIFF"

	// KindInvalidRoute indicates the distance matrix has no entry for a
	// required origin/destination/segment combination.
	KindInvalidRoute Kind = "INVALID_ROUTE"

	// KindInvalidWeight indicates a load with non-positive net weight.
	KindInvalidWeight Kind = "INVALID_WEIGHT"

	// KindInvalidConversionRate indicates a non-positive UF value.
	KindInvalidConversionRate Kind = "INVALID_CONVERSION_RATE"

	// KindInvalidInput covers construction-time invariant violations not
	// captured by a more specific kind (bad rates, unknown enum values,
	// inverted date ranges).
	KindInvalidInput Kind = "INVALID_INPUT"
)

// Error is the typed failure returned by the settlement engine. The message
// always carries enough context (concept, node ids, offending value) for the
// caller to fix the root cause without re-deriving it.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Errorf builds a typed engine error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from an engine error, or "" for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an engine error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
