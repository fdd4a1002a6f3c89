package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

const bearerPrefix = "Bearer "

// authenticate checks the Authorization header against the shared key.
// An empty key rejects every request.
func authenticate(r *http.Request, apiKey string) error {
	if apiKey == "" {
		return domain.ErrAuth
	}

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return domain.ErrAuth
	}

	token := header[len(bearerPrefix):]
	if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
		return domain.ErrAuth
	}
	return nil
}
