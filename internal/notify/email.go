package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 15 * time.Second

// EmailClient sends invitation emails through a transactional email HTTP API.
type EmailClient struct {
	client *resty.Client
}

// NewEmailClient returns a client for the email API at baseURL authenticated with apiKey.
func NewEmailClient(baseURL, apiKey string) *EmailClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(defaultTimeout)
	return &EmailClient{client: client}
}

// SendInvite posts one invitation email to the API. Returns an error for
// transport failures or non-2xx responses.
func (c *EmailClient) SendInvite(ctx context.Context, msg InviteEmail) error {
	body := map[string]interface{}{
		"to":       msg.To,
		"template": "team_invite",
		"variables": map[string]string{
			"organization": msg.OrgName,
			"role":         msg.Role,
			"link":         msg.Link,
		},
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/send")
	if err != nil {
		return fmt.Errorf("notify: send invite: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notify: send invite failed status=%d body=%s", resp.StatusCode(), resp.String())
	}
	return nil
}
