// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	SessionName = "vibess-session"

	isAuthKey  = "is_authenticated"
	userIDKey  = "user_id"
	userNameK  = "user_name"
	userEmailK = "user_email"
	userRoleK  = "user_role"
)

// Store is initialised once via InitSessionStore.
var Store *sessions.CookieStore

// SessionUser is what we cache in the session & inject into r.Context().
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// LoadSessionUser injects the user into context if they are logged in.
// If the session store has not been initialized yet, it is a no-op.
func LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Store == nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, _ := Store.Get(r, SessionName)
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:    getString(sess, userIDKey),
				Name:  getString(sess, userNameK),
				Email: getString(sess, userEmailK),
				Role:  getString(sess, userRoleK),
			}
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by
// LoadSessionUser). This is a JSON API: unauthenticated callers get a
// plain 401, never a redirect.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"unauthorized","message":"Sign in required."}}`))
	})
}

// SignIn writes the user into the session cookie.
func SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	if Store == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userNameK] = u.Name
	sess.Values[userEmailK] = u.Email
	sess.Values[userRoleK] = u.Role
	return sess.Save(r, w)
}

// SignOut clears the session cookie.
func SignOut(w http.ResponseWriter, r *http.Request) error {
	if Store == nil {
		return nil
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// InitSessionStore initializes the global session Store using the provided
// session key and domain. The `secure` flag controls whether cookies are
// marked Secure and which SameSite mode is used.
func InitSessionStore(sessionKey, domain string, secure bool, logger *zap.Logger) error {
	if sessionKey == "" {
		return fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts
	Store = store

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))
	return nil
}

// WithTestUser injects a user directly into the request context,
// bypassing the session middleware. For handler tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
