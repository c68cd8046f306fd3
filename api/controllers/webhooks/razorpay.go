package webhooks

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rohanjoshi-dev/bitekart-backend/api/responses"
	paymentssvc "github.com/rohanjoshi-dev/bitekart-backend/internal/payments"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
)

const (
	signatureHeader = "X-Razorpay-Signature"
	eventIDHeader   = "X-Razorpay-Event-Id"

	// Gateways retry for about a day; remembering event ids longer than
	// that only grows the keyspace.
	eventGuardTTL = 48 * time.Hour
)

// EventGuard remembers processed webhook deliveries so retries short-circuit
// before touching the database.
type EventGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(ctx context.Context, keys ...string) error
}

// Razorpay handles asynchronous payment notifications from the gateway. The
// route is unauthenticated; the HMAC signature over the raw body is the
// authentication.
func Razorpay(svc paymentssvc.Service, guard EventGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(signatureHeader)
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeVerificationFailed, "webhook signature missing"))
			return
		}

		// The redis guard is a fast path only. The capture itself is
		// idempotent, so a guard miss (or no redis at all) is safe.
		eventID := r.Header.Get(eventIDHeader)
		var guardKey string
		if guard != nil && eventID != "" {
			guardKey = guard.IdempotencyKey("webhook:razorpay", eventID)
			fresh, err := guard.SetNX(ctx, guardKey, time.Now().Unix(), eventGuardTTL)
			if err != nil {
				if logg != nil {
					logg.Warn(ctx, "webhook event guard unavailable")
				}
			} else if !fresh {
				responses.WriteSuccess(w, map[string]string{"status": "ok"})
				return
			}
		}

		result, err := svc.HandleWebhook(ctx, body, signature)
		if err != nil {
			if guardKey != "" {
				_ = guard.Del(ctx, guardKey)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			fields := map[string]any{"event": result.Event, "duplicate": result.Duplicate, "ignored": result.Ignored}
			logg.Info(logg.WithFields(ctx, fields), "webhook processed")
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
