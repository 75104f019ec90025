package clerk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	svix "github.com/svix/svix-webhooks/go"
)

// Webhook event types
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Delivery headers set by the webhook sender
const (
	HeaderDeliveryID        = "svix-id"
	HeaderDeliveryTimestamp = "svix-timestamp"
	HeaderDeliverySignature = "svix-signature"
)

var (
	// ErrInvalidSignature is returned when the payload signature does not verify
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrMalformedEvent is returned when a verified payload cannot be decoded
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// Event is a webhook envelope
type Event struct {
	Type   string   `json:"type"`
	Object string   `json:"object"`
	Data   UserData `json:"data"`
}

// IsUserEvent reports whether the event concerns a user record
func (e *Event) IsUserEvent() bool {
	return strings.HasPrefix(e.Type, "user.")
}

// IsDeletion reports whether the event removes a user
func (e *Event) IsDeletion() bool {
	return e.Type == EventUserDeleted
}

// WebhookVerifier checks signed webhook deliveries for one audience
type WebhookVerifier struct {
	wh *svix.Webhook
}

// NewWebhookVerifier creates a verifier for a whsec_ prefixed signing secret
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	if secret == "" {
		return nil, errors.New("webhook secret is required")
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook secret: %w", err)
	}
	return &WebhookVerifier{wh: wh}, nil
}

// Verify checks the delivery signature and timestamp, then decodes the event
func (v *WebhookVerifier) Verify(payload []byte, headers http.Header) (*Event, error) {
	if err := v.wh.Verify(payload, headers); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}
	if event.Data.ID == "" {
		return nil, fmt.Errorf("%w: missing data.id", ErrMalformedEvent)
	}

	return &event, nil
}
