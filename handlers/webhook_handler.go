package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/upb/tenant-access-gate/clerk"
	"github.com/upb/tenant-access-gate/internal/observability"
	"github.com/upb/tenant-access-gate/middleware"
	"github.com/upb/tenant-access-gate/services/usersync"
	"github.com/upb/tenant-access-gate/utils"
	"go.uber.org/zap"
)

// maxWebhookBody bounds the payload read before signature verification
const maxWebhookBody = 1 << 20

// EventVerifier checks a signed delivery and decodes its event
type EventVerifier interface {
	Verify(payload []byte, headers http.Header) (*clerk.Event, error)
}

// EventApplier writes a verified event to the registry
type EventApplier interface {
	Apply(ctx context.Context, audience usersync.Audience, event *clerk.Event) (*usersync.Result, error)
}

// DeliveryLedger remembers applied delivery ids
type DeliveryLedger interface {
	Seen(ctx context.Context, audience, deliveryID string) bool
	Mark(ctx context.Context, audience, deliveryID string)
}

// WebhookHandler receives identity provider events for one audience.
// Every failure is answered with a bare 400 so the sender retries; the
// reason is only logged.
type WebhookHandler struct {
	audience usersync.Audience
	verifier EventVerifier
	applier  EventApplier
	ledger   DeliveryLedger
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewWebhookHandler creates a new WebhookHandler. A nil verifier rejects every
// delivery; a nil ledger disables duplicate suppression.
func NewWebhookHandler(audience usersync.Audience, verifier EventVerifier, applier EventApplier, ledger DeliveryLedger, logger *zap.Logger, metrics *observability.Metrics) *WebhookHandler {
	return &WebhookHandler{
		audience: audience,
		verifier: verifier,
		applier:  applier,
		ledger:   ledger,
		logger:   logger.With(zap.String("audience", string(audience))),
		metrics:  metrics,
	}
}

// ServeHTTP handles POST /api/webhooks/clerk/{audience}
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deliveryID := r.Header.Get(clerk.HeaderDeliveryID)
	logger := h.logger.With(
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("delivery_id", deliveryID))

	if h.verifier == nil {
		logger.Error("webhook secret not configured")
		h.reject(w, "", "unconfigured")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		logger.Warn("failed to read webhook body", zap.Error(err))
		h.reject(w, "", "unreadable")
		return
	}
	if len(payload) > maxWebhookBody {
		logger.Warn("webhook body too large")
		h.reject(w, "", "too_large")
		return
	}

	event, err := h.verifier.Verify(payload, r.Header)
	if err != nil {
		logger.Warn("webhook verification failed", zap.Error(err))
		h.reject(w, "", "rejected")
		return
	}
	logger = logger.With(zap.String("event_type", event.Type), zap.String("clerk_user_id", event.Data.ID))

	if h.ledger != nil && h.ledger.Seen(ctx, string(h.audience), deliveryID) {
		logger.Info("duplicate webhook delivery acknowledged")
		h.metrics.ObserveWebhook(string(h.audience), event.Type, "duplicate")
		_ = utils.WriteOKText(w)
		return
	}

	result, err := h.applier.Apply(ctx, h.audience, event)
	if err != nil {
		logger.Error("webhook apply failed", zap.Error(err))
		h.reject(w, event.Type, "failed")
		return
	}

	if h.ledger != nil {
		h.ledger.Mark(ctx, string(h.audience), deliveryID)
	}
	h.metrics.ObserveWebhook(string(h.audience), event.Type, string(result.Action))
	_ = utils.WriteOKText(w)
}

func (h *WebhookHandler) reject(w http.ResponseWriter, eventType, outcome string) {
	h.metrics.ObserveWebhook(string(h.audience), eventType, outcome)
	_ = utils.WriteBadRequestText(w)
}
