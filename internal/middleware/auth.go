// Package middleware holds the chi middlewares of the API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"taskhub/internal/common"
	"taskhub/internal/models"
	"taskhub/internal/policy"
	"taskhub/internal/utils"
)

type ctxKey string

const UserKey ctxKey = "user"

// Authenticator resolves an access token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthJWT rejects requests without a valid Bearer access token and stores the
// user in the request context.
func AuthJWT(a Authenticator, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				utils.Error(w, log, common.ErrUnauthorized)
				return
			}
			u, err := a.Authenticate(r.Context(), token)
			if err != nil {
				utils.Error(w, log, err)
				return
			}
			ctx := context.WithValue(r.Context(), UserKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require enforces the access rule of action for the current caller.
func Require(action policy.Action, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := policy.Allow(action, CallerFrom(r.Context())); err != nil {
				utils.Error(w, log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// UserFrom returns the authenticated user, if any.
func UserFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(UserKey).(*models.User)
	return u, ok && u != nil
}

// CallerFrom returns the policy caller of the request, nil when anonymous.
func CallerFrom(ctx context.Context) *policy.Caller {
	u, _ := UserFrom(ctx)
	return policy.CallerOf(u)
}
