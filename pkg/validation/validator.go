// Package validation holds the request-shape checks the paste and chat
// HTTP handlers apply before touching storage. Each check maps to one
// of the error kinds the HTTP surface is allowed to return.
package validation

import (
	"fmt"

	"github.com/LonleySailor/zkpaste/pkg/idgen"
)

// Kind enumerates the validation-class error strings the HTTP surface
// is allowed to return.
type Kind string

const (
	KindMalformedBody Kind = "malformed_body"
	KindTooLarge      Kind = "too_large"
	KindBadExpiration Kind = "bad_expiration"
	KindMissingField  Kind = "missing_field"
)

// Error is a validation failure tagged with its response kind.
type Error struct {
	Kind  Kind
	Field string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Kind)
}

// Validator groups the size/shape limits a deployment is configured
// with; it holds no mutable state and is safe for concurrent use.
type Validator struct {
	MaxPasteSizeBytes    int
	MaxExpirationSeconds int64
	MaxChatMessageBytes  int
}

// New creates a Validator bound to the given limits.
func New(maxPasteSizeBytes int, maxExpirationSeconds int64, maxChatMessageBytes int) *Validator {
	return &Validator{
		MaxPasteSizeBytes:    maxPasteSizeBytes,
		MaxExpirationSeconds: maxExpirationSeconds,
		MaxChatMessageBytes:  maxChatMessageBytes,
	}
}

// DecodeBase64Field decodes a base64url field, reporting
// KindMalformedBody on invalid input and KindMissingField on an empty
// required value.
func (v *Validator) DecodeBase64Field(field, value string, required bool) ([]byte, *Error) {
	if value == "" {
		if required {
			return nil, &Error{Kind: KindMissingField, Field: field}
		}
		return nil, nil
	}

	decoded, err := idgen.DecodeURL(value)
	if err != nil {
		return nil, &Error{Kind: KindMalformedBody, Field: field}
	}
	return decoded, nil
}

// ValidatePasteSize enforces that decoded ciphertext length does not
// exceed the configured maximum.
func (v *Validator) ValidatePasteSize(decodedLen int) *Error {
	if decodedLen > v.MaxPasteSizeBytes {
		return &Error{Kind: KindTooLarge, Field: "ct"}
	}
	return nil
}

// ValidateChatMessageSize enforces the chat message size cap.
func (v *Validator) ValidateChatMessageSize(decodedLen int) *Error {
	if decodedLen > v.MaxChatMessageBytes {
		return &Error{Kind: KindTooLarge, Field: "ct"}
	}
	return nil
}

// ValidateExpireTs enforces that expireTs is strictly in the future
// and no further than MaxExpirationSeconds out.
func (v *Validator) ValidateExpireTs(expireTs, now int64) *Error {
	if expireTs <= now {
		return &Error{Kind: KindBadExpiration, Field: "meta.expireTs"}
	}
	if expireTs > now+v.MaxExpirationSeconds {
		return &Error{Kind: KindBadExpiration, Field: "meta.expireTs"}
	}
	return nil
}

// ValidateViewsAllowed rejects a negative view counter. Zero means
// "not specified" (the field is optional); a positive value is
// otherwise accepted as-is. See SPEC_FULL.md's decrementing-counter
// decision.
func (v *Validator) ValidateViewsAllowed(viewsAllowed int) *Error {
	if viewsAllowed < 0 {
		return &Error{Kind: KindBadExpiration, Field: "meta.viewsAllowed"}
	}
	return nil
}
