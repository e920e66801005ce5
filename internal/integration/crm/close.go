// Package crm holds outbound clients for CRM providers.
package crm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.close.com/api/v1"
	defaultTimeout = 15 * time.Second
)

// CloseClient calls the close.com REST API.
type CloseClient struct {
	client *resty.Client
}

// NewCloseClient returns a client for the close.com API. An empty baseURL
// selects the production endpoint.
func NewCloseClient(baseURL string) *CloseClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout)
	return &CloseClient{client: client}
}

type meResponse struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
}

// Identity verifies apiKey against the provider's /me/ endpoint and returns
// the account holder's display name. A rejected key or transport failure
// returns an error.
func (c *CloseClient) Identity(ctx context.Context, apiKey string) (string, error) {
	var me meResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(apiKey).
		SetResult(&me).
		Get("/me/")
	if err != nil {
		return "", fmt.Errorf("crm: identity check: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("crm: identity check failed status=%d", resp.StatusCode())
	}
	if me.FirstName != "" {
		return me.FirstName, nil
	}
	if me.Email != "" {
		return me.Email, nil
	}
	return "Verified User", nil
}
