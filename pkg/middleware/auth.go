package middleware

import (
	"errors"
	"net/http"

	"turfbook/pkg/auth"
	apperrors "turfbook/pkg/errors"
	httputil "turfbook/pkg/http"
	"turfbook/pkg/logger"
)

// Authenticate attaches the bearer token identity to the request context.
// Requests without a token continue anonymously; a token that fails
// verification is rejected outright.
func Authenticate(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := auth.BearerToken(header)
			if err == nil {
				var id auth.Identity
				id, err = auth.ParseToken(secret, raw)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
					return
				}
			}

			log.Warn("Rejected bearer token",
				"request_id", requestID(r),
				"path", r.URL.Path,
				"missing", errors.Is(err, auth.ErrMissingToken),
				"error", err,
			)
			_ = httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired token"))
		})
	}
}
