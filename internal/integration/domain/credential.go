package domain

import (
	"fmt"
	"time"
)

// ProviderClose is the CRM provider identifier for close.com.
const ProviderClose = "close"

// Credential is a stored third-party API credential for one org and
// provider. APIKey holds the encrypted payload, never the plaintext.
type Credential struct {
	OrgID     string
	Provider  string
	APIKey    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks required fields.
func (c *Credential) Validate() error {
	if c.OrgID == "" {
		return fmt.Errorf("org id is required")
	}
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	return nil
}
