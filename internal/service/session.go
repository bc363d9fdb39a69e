package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/clera-dev/clera-gateway/internal/config"
)

// SessionVerifier validates Supabase-issued session JWTs. When no JWKS URL is
// configured only the claims are validated (dev mode); production configs set
// issuer, audience, and the JWKS endpoint.
type SessionVerifier struct {
	issuer   string
	audience string
	jwksURL  string
	cache    *jwk.Cache
}

func NewSessionVerifier(cfg *config.Config) *SessionVerifier {
	return &SessionVerifier{
		issuer:   cfg.Auth.Issuer,
		audience: cfg.Auth.Audience,
		jwksURL:  cfg.Auth.JWKSURL,
	}
}

// StartKeyCache initializes the JWKS auto-refresh cache. No-op without a
// configured JWKS URL.
func (v *SessionVerifier) StartKeyCache(ctx context.Context) error {
	if v.jwksURL == "" {
		return nil
	}
	c := jwk.NewCache(ctx)
	if err := c.Register(v.jwksURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return fmt.Errorf("registering JWKS URL %s: %w", v.jwksURL, err)
	}
	v.cache = c
	return nil
}

// Verify validates the token and returns the subject (user id).
func (v *SessionVerifier) Verify(ctx context.Context, tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", fmt.Errorf("empty session token")
	}

	parseOpts := []jwt.ParseOption{jwt.WithValidate(true)}
	if v.issuer != "" {
		parseOpts = append(parseOpts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		parseOpts = append(parseOpts, jwt.WithAudience(v.audience))
	}

	if v.jwksURL != "" {
		keySet, err := v.fetchKeys(ctx)
		if err != nil {
			return "", fmt.Errorf("fetching JWKS: %w", err)
		}
		parseOpts = append(parseOpts, jwt.WithKeySet(keySet))
	} else {
		parseOpts = append(parseOpts, jwt.WithVerify(false))
	}

	token, err := jwt.Parse([]byte(tokenStr), parseOpts...)
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}

	subject := token.Subject()
	if subject == "" {
		return "", fmt.Errorf("session token has no subject")
	}
	return subject, nil
}

func (v *SessionVerifier) fetchKeys(ctx context.Context) (jwk.Set, error) {
	if v.cache != nil {
		return v.cache.Get(ctx, v.jwksURL)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return jwk.Fetch(ctx, v.jwksURL)
}
