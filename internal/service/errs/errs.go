// Package errs defines the error taxonomy shared by the settlement core.
// Services return these sentinels wrapped with context; the HTTP layer maps
// them to status codes with errors.Is and never leaks driver errors upward.
package errs

import "errors"

var (
	// ErrNotFound covers both missing resources and resources owned by
	// someone else, so existence is never leaked to non-owners.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means a status or payment_status precondition failed.
	ErrInvalidState = errors.New("invalid state")

	// ErrEmptyCart means the cart exists but has no items.
	ErrEmptyCart = errors.New("your cart is empty")

	// ErrNoCart means no cart exists for the principal.
	ErrNoCart = errors.New("cart not found")

	// ErrUnsupportedProvider means the provider key resolves to nothing.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrConfiguration means a required setting (e.g. a callback URL) is
	// missing. Fail closed: the provider is never called in this case.
	ErrConfiguration = errors.New("configuration error")

	// ErrProviderCommunication means the gateway could not be reached or
	// returned garbage. Always caught and converted, never propagated raw.
	ErrProviderCommunication = errors.New("provider communication error")

	// ErrConcurrencyConflict means this call lost an initiate/verify race.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)
