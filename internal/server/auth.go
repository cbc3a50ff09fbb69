package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"

	"sitecheck/internal/repo"
)

type AuthConfig struct {
	JWTSecret              string
	AllowLegacyActorHeader bool
	Logger                 *log.Logger
}

// Principal identifies the authenticated caller. Source records which
// credential produced it (jwt, api_key, legacy_header).
type Principal struct {
	ActorID string
	Source  string
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func actorIDFromContext(ctx context.Context) (string, huma.StatusError) {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok && p.ActorID != "" {
		return p.ActorID, nil
	}
	return "", newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
}

var (
	errNoCredentials   = errors.New("no credentials")
	errBadCredentials  = errors.New("invalid credentials")
	errSecretUnset     = errors.New("jwt secret not configured")
	errSubjectRequired = errors.New("subject claim required")
)

// authenticator resolves a request to a Principal. Credential precedence is
// Authorization bearer, then X-Api-Key, then the legacy X-Actor-Id header
// when explicitly allowed.
type authenticator struct {
	cfg  AuthConfig
	repo repo.Repo
}

func (a authenticator) authenticate(req *http.Request) (Principal, error) {
	if authz := strings.TrimSpace(req.Header.Get("Authorization")); authz != "" {
		parts := strings.Fields(authz)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return Principal{}, errBadCredentials
		}
		return a.verifyJWT(parts[1])
	}
	if key := strings.TrimSpace(req.Header.Get("X-Api-Key")); key != "" {
		return a.verifyAPIKey(req.Context(), key)
	}
	if actor := strings.TrimSpace(req.Header.Get("X-Actor-Id")); actor != "" && a.cfg.AllowLegacyActorHeader {
		a.logger().Printf("WARNING: using legacy X-Actor-Id header without auth; this path is deprecated and ignored when Authorization or X-Api-Key is present (actor_id=%s)", actor)
		return Principal{ActorID: actor, Source: "legacy_header"}, nil
	}
	return Principal{}, errNoCredentials
}

func (a authenticator) verifyJWT(token string) (Principal, error) {
	if strings.TrimSpace(a.cfg.JWTSecret) == "" {
		return Principal{}, errSecretUnset
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(a.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return Principal{}, errBadCredentials
	}
	if claims.Subject == "" {
		return Principal{}, errSubjectRequired
	}
	return Principal{ActorID: claims.Subject, Source: "jwt"}, nil
}

func (a authenticator) verifyAPIKey(ctx context.Context, key string) (Principal, error) {
	apiKey, err := a.repo.GetAPIKeyByHash(ctx, repo.HashAPIKey(key))
	if err != nil || apiKey.ActorID == "" {
		return Principal{}, errBadCredentials
	}
	return Principal{ActorID: apiKey.ActorID, Source: "api_key"}, nil
}

func (a authenticator) logger() *log.Logger {
	if a.cfg.Logger != nil {
		return a.cfg.Logger
	}
	return log.Default()
}

func newAuthMiddleware(basePath string, cfg AuthConfig, r repo.Repo) func(http.Handler) http.Handler {
	auth := authenticator{cfg: cfg, repo: r}
	healthPath := path.Join(basePath, "health")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			// Only paths under the API base are protected; health stays open
			// for probes.
			if basePath != "" && !strings.HasPrefix(req.URL.Path, basePath) {
				next.ServeHTTP(w, req)
				return
			}
			if req.URL.Path == healthPath {
				next.ServeHTTP(w, req)
				return
			}
			principal, err := auth.authenticate(req)
			if err != nil {
				code, msg := "invalid_credentials", "invalid credentials"
				if errors.Is(err, errNoCredentials) {
					code, msg = "unauthorized", "authentication required"
				}
				respondStatusError(w, newAPIError(http.StatusUnauthorized, code, msg, nil))
				return
			}
			next.ServeHTTP(w, req.WithContext(withPrincipal(req.Context(), principal)))
		})
	}
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	status := http.StatusInternalServerError
	if e, ok := err.(interface{ GetStatus() int }); ok {
		status = e.GetStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(err)
}
