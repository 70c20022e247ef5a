package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/Jnyame21/aivise-health/internal/domain/auth"
)

// apiKeyHeader carries the caller's API key.
const apiKeyHeader = "api_key"

type clientIDKey struct{}

// ClientFromContext returns the client identity resolved by the auth
// middleware. ok is false for keys not bound to a client account.
func ClientFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(clientIDKey{}).(int64)
	return id, ok
}

// APIKeyAuth authenticates requests by computing the HMAC-SHA256 of the
// provided API key, looking it up in the repository, and performing a
// constant-time comparison to prevent timing attacks. When the key is bound
// to a client, the client identity is stored in the request context.
func APIKeyAuth(keys auth.Repository, pepper []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(apiKeyHeader)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			mac := hmac.New(sha256.New, pepper)
			mac.Write([]byte(key))
			hash := mac.Sum(nil)

			info, err := keys.FindByHash(r.Context(), hex.EncodeToString(hash))
			if err != nil {
				// A lookup failure that is not a missing key (e.g. the
				// database is down) must not read as bad credentials.
				if errors.Is(err, auth.ErrKeyNotFound) {
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				writeInternalError(w, r, err)
				return
			}

			// The stored hash could differ from what we computed if the
			// repository returns a stale/wrong row.
			stored, err := hex.DecodeString(info.KeyHash)
			if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := r.Context()
			if info.ClientID != nil {
				ctx = context.WithValue(ctx, clientIDKey{}, *info.ClientID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireClient rejects requests whose API key is not bound to a client
// account. Order operations need a resolved client identity.
func RequireClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClientFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
