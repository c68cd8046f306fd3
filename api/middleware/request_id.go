package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
)

const headerRequestID = "X-Request-Id"

// RequestID reuses the caller's request id when one is supplied and
// mints a fresh one otherwise. The id is echoed back in the response
// header and stamped onto the request-scoped logger.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := requestID(r)
			w.Header().Set(headerRequestID, id)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestID(r *http.Request) string {
	if id := r.Header.Get(headerRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}
