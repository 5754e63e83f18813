package daemon

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/lestrrat-go/jwx/jwk"
	"github.com/lestrrat-go/jwx/jwt"
	"github.com/rs/zerolog/log"
)

// LoadKeySet reads the JSON Web Key Set that bearer tokens are verified
// against. source is either an http(s) URL or a local file.
func LoadKeySet(ctx context.Context, source string) (jwk.Set, error) {
	var (
		set jwk.Set
		err error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		set, err = jwk.Fetch(ctx, source)
	} else {
		set, err = jwk.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", source, err)
	}
	if set.Len() == 0 {
		return nil, fmt.Errorf("JWKS from %s holds no keys", source)
	}
	return set, nil
}

// requireToken lets a request through only if its Authorization header
// carries a valid JWT signed by one of keys. A nil key set disables the
// check.
func requireToken(keys jwk.Set) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if keys == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := jwt.ParseRequest(r,
				jwt.WithKeySet(keys),
				jwt.UseDefaultKey(true),
				jwt.InferAlgorithmFromKey(true),
				jwt.WithValidate(true),
			)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected request without valid token")
				w.Header().Set("WWW-Authenticate", `Bearer realm="pductl"`)
				writeError(w, http.StatusUnauthorized, "missing or invalid access token")
				return
			}
			log.Info().Str("subject", token.Subject()).Str("path", r.URL.Path).Msg("authorized request")
			next.ServeHTTP(w, r)
		})
	}
}
