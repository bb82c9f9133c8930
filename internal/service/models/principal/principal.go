package principal

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Principal is the authenticated customer on whose behalf cart, order and
// payment operations run. Token issuance and validation happen upstream; this
// service only consumes the resolved identity.
type Principal struct {
	ID             uuid.UUID       `json:"userId"`
	Email          string          `json:"email"`
	FirstName      string          `json:"firstName"`
	LastName       string          `json:"lastName"`
	DefaultAddress json.RawMessage `json:"defaultAddress,omitempty"`
}

// FullName joins first and last name for notification payloads.
func (p Principal) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
