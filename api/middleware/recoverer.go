package middleware

import (
	"fmt"
	"net/http"

	"github.com/rohanjoshi-dev/bitekart-backend/api/responses"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
)

// Recoverer turns handler panics into a 500 response so a single bad
// request cannot take the process down.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer recoverRequest(w, r, logg)
			next.ServeHTTP(w, r)
		})
	}
}

func recoverRequest(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	cause := recover()
	if cause == nil {
		return
	}

	ctx := r.Context()
	err := fmt.Errorf("panic: %v", cause)
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"panic": cause})
		logg.Error(ctx, "panic.recovered", err)
	}
	responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
}
