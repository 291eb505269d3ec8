package cbs

import (
	"context"
	"time"
)

// MockClient is the in-process stand-in for environments without core
// banking connectivity (local dev, demos, integration tests). The locked
// flag is fixed at construction so a demo run behaves deterministically.
type MockClient struct {
	locked bool
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock status source. When locked is true every
// customer reports a LOCKED status with a FAILED_OTP_3 reason; otherwise
// every customer is ACTIVE with no incident fields.
func NewMockClient(locked bool) *MockClient {
	return &MockClient{locked: locked}
}

// FetchAccountSnapshot returns the canned snapshot. Never fails.
func (c *MockClient) FetchAccountSnapshot(_ context.Context, _ string) (*AccountSnapshot, error) {
	if c.locked {
		return &AccountSnapshot{
			MaskedAccount:    "XXXXXX1234",
			NetbankingStatus: "LOCKED",
			ReasonCode:       "FAILED_OTP_3",
			LastFailedLogin:  time.Now().UTC().Add(-30 * time.Minute).Format(time.RFC3339),
		}, nil
	}
	return &AccountSnapshot{
		MaskedAccount:    "XXXXXX1234",
		NetbankingStatus: "ACTIVE",
	}, nil
}
