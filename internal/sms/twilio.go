// Package sms provides the message transport used by the dispatch cycle.
// It defines the Sender contract and a Twilio Messages API implementation
// that delivers a text body with optional media attachments to a phone
// number and returns the provider-assigned message SID.
package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jsolly/text-notifications-app-sub000/internal/config"
)

// Sender delivers one message to a phone number and returns the provider
// message identifier. Implementations must honor the context deadline; an
// expired context manifests as an error, never a hang.
type Sender interface {
	Send(ctx context.Context, toPhone, body string, mediaURLs []string) (sid string, err error)
}

// TwilioClient sends SMS/MMS through the Twilio REST API.
type TwilioClient struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

// NewTwilioClient constructs a TwilioClient from configuration. The HTTP
// client carries no timeout of its own; per-send deadlines come from the
// caller's context.
func NewTwilioClient(cfg config.TwilioConfig) *TwilioClient {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.twilio.com"
	}
	return &TwilioClient{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
		baseURL:    base,
		client:     &http.Client{},
	}
}

// twilioMessageResponse is the subset of the Messages API response we read.
type twilioMessageResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// twilioErrorResponse is the error envelope (4xx/5xx) of the Messages API.
type twilioErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send posts one message to the Twilio Messages endpoint and returns the
// message SID. A non-2xx response or a context deadline is returned as an
// error; callers treat either as a delivery failure for that one recipient.
func (c *TwilioClient) Send(ctx context.Context, toPhone, body string, mediaURLs []string) (string, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)

	params := url.Values{}
	params.Set("To", toPhone)
	params.Set("From", c.from)
	params.Set("Body", body)
	for _, m := range mediaURLs {
		if m != "" {
			params.Add("MediaUrl", m)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e twilioErrorResponse
		if json.Unmarshal(raw, &e) == nil && e.Message != "" {
			return "", fmt.Errorf("twilio API error %d: %s", e.Code, e.Message)
		}
		return "", fmt.Errorf("twilio API error: %s", resp.Status)
	}

	var msg twilioMessageResponse
	if err := json.Unmarshal(raw, &msg); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if msg.SID == "" {
		return "", fmt.Errorf("twilio response missing message sid")
	}
	return msg.SID, nil
}

var _ Sender = (*TwilioClient)(nil)
