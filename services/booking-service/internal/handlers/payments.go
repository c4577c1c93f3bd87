package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// GroupMetadataKey names the checkout session metadata entry holding the
// reservation group id.
const GroupMetadataKey = "group_id"

// PaymentGroups is what the payment callback drives.
type PaymentGroups interface {
	ConfirmGroup(ctx context.Context, groupID string) ([]model.Reservation, error)
	CancelGroup(ctx context.Context, groupID string) ([]model.Reservation, error)
	ReleaseGroup(ctx context.Context, groupID string) (int, error)
}

type PaymentsHandler struct {
	groups    PaymentGroups
	secret    string
	tolerance time.Duration
	logger    *slog.Logger
}

func NewPaymentsHandler(groups PaymentGroups, secret string, tolerance time.Duration, logger *slog.Logger) *PaymentsHandler {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &PaymentsHandler{groups: groups, secret: strings.TrimSpace(secret), tolerance: tolerance, logger: logger}
}

func (h *PaymentsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/payments/stripe/webhook", h.StripeWebhook)
}

// StripeWebhook confirms or releases a reservation group when its deposit
// checkout settles. The signature is the authentication.
func (h *PaymentsHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if h.secret == "" {
		http.Error(w, "stripe webhook not configured", http.StatusServiceUnavailable)
		return
	}
	sigHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		http.Error(w, "missing Stripe-Signature header", http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	evt, err := webhook.ConstructEventWithOptions(body, sigHeader, h.secret, webhook.ConstructEventOptions{
		Tolerance:                h.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	evtType := string(evt.Type)
	h.logger.Info("payment event received", "provider", "stripe", "provider_event_id", evt.ID, "event_type", evtType)

	switch evtType {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		session, groupID, ok := h.session(evt)
		if !ok {
			break
		}
		if evtType == "checkout.session.completed" && session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
			h.logger.Info("checkout completed without payment yet", "group_id", groupID, "session_id", session.ID)
			break
		}
		status, err := h.confirm(r.Context(), groupID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": status, "group_id": groupID})
		return

	case "checkout.session.expired", "checkout.session.async_payment_failed":
		_, groupID, ok := h.session(evt)
		if !ok {
			break
		}
		n, err := h.groups.ReleaseGroup(r.Context(), groupID)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			writeError(w, h.logger, err)
			return
		}
		h.logger.Info("reservation group released", "group_id", groupID, "records", n)
		writeJSON(w, http.StatusOK, map[string]any{"status": "released", "group_id": groupID})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ignored"})
}

func (h *PaymentsHandler) session(evt stripe.Event) (stripe.CheckoutSession, string, bool) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
		h.logger.Error("stripe: invalid checkout session payload", "err", err)
		return session, "", false
	}
	groupID := strings.TrimSpace(session.Metadata[GroupMetadataKey])
	if groupID == "" {
		h.logger.Warn("stripe: checkout session without group_id metadata", "session_id", session.ID)
		return session, "", false
	}
	return session, groupID, true
}

// confirm settles a paid group. If another booking was confirmed on the same
// slot first, the paid group is cancelled and kept for the refund trail.
func (h *PaymentsHandler) confirm(ctx context.Context, groupID string) (string, error) {
	_, err := h.groups.ConfirmGroup(ctx, groupID)
	switch {
	case err == nil:
		return "confirmed", nil
	case errors.Is(err, model.ErrSlotNotFree):
		h.logger.Warn("paid group lost its slot", "group_id", groupID, "err", err)
		if _, cerr := h.groups.CancelGroup(ctx, groupID); cerr != nil {
			return "", cerr
		}
		return "slot_taken", nil
	case errors.Is(err, model.ErrNotFound):
		h.logger.Warn("paid group no longer exists", "group_id", groupID)
		return "missing", nil
	case errors.Is(err, model.ErrInvalidTransition):
		return "already_cancelled", nil
	default:
		return "", err
	}
}
