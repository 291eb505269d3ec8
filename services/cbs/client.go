// Package cbs adapts the core banking system's customer-status lookup for the
// assistant pipeline. Only masked, non-PII fields ever cross this boundary:
// the snapshot is the complete set of account facts the rest of the system is
// allowed to see.
package cbs

import (
	"context"
	"errors"
)

// ErrLookupFailed wraps any transport or decode failure from the core banking
// system. Status lookups are load-bearing for intent handling, so callers
// treat this as fatal for the request rather than degrading silently.
var ErrLookupFailed = errors.New("cbs: status lookup failed")

// AccountSnapshot is the masked account summary for one customer.
//
// ReasonCode and LastFailedLogin are empty when the backend has nothing to
// report; the context assembler renders empties as JSON null so the model
// sees an explicit absence rather than a missing key.
type AccountSnapshot struct {
	// MaskedAccount keeps only the last four digits, e.g. XXXXXX1234.
	MaskedAccount string `json:"masked_account"`

	// NetbankingStatus is ACTIVE or LOCKED.
	NetbankingStatus string `json:"netbanking_status"`

	// ReasonCode explains a non-ACTIVE status, e.g. FAILED_OTP_3.
	ReasonCode string `json:"reason_code"`

	// LastFailedLogin is an RFC 3339 timestamp of the last failed attempt.
	LastFailedLogin string `json:"last_failed_login"`
}

// Client fetches masked account snapshots. Implementations must never return
// unmasked account identifiers.
type Client interface {
	FetchAccountSnapshot(ctx context.Context, customerID string) (*AccountSnapshot, error)
}
