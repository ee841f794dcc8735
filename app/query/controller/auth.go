package controller

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/fitelo/sales-dashboard/app/query/types"
	"github.com/fitelo/sales-dashboard/pkg/utils"
	"github.com/go-jose/go-jose/v4/json"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	sessionCookie = "sd_session"
	sessionTTL    = 12 * time.Hour
)

type sessionKey struct{}

// apiSession is the identity of bearer-token callers.
var apiSession = types.Session{Email: "api-token", Name: "api-token", Role: types.RoleAdmin}

// ValidateToken checks if the Authorization header carries the API token.
func (c *Controller) ValidateToken(r *http.Request) bool {
	if c.App.APIToken == "" {
		return false
	}
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	return subtle.ConstantTimeCompare([]byte(token), []byte(c.App.APIToken)) == 1
}

// sessionFromCookie parses and verifies the session cookie.
func (c *Controller) sessionFromCookie(r *http.Request) (types.Session, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return types.Session{}, false
	}
	tok, err := jwt.Parse(cookie.Value,
		func(t *jwt.Token) (any, error) { return c.App.SessionSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !tok.Valid {
		return types.Session{}, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return types.Session{}, false
	}
	s := types.Session{}
	s.Email, _ = claims["sub"].(string)
	s.Name, _ = claims["name"].(string)
	s.Role, _ = claims["role"].(string)
	if s.Email == "" || s.Role == "" {
		return types.Session{}, false
	}
	return s, true
}

// RequireAuth middleware
func (c *Controller) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c.ValidateToken(r) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, apiSession)))
			return
		}
		if s, ok := c.sessionFromCookie(r); ok {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
			return
		}
		c.writeError(w, http.StatusUnauthorized, "unauthorized")
	})
}

// currentSession returns the identity attached by RequireAuth.
func currentSession(r *http.Request) types.Session {
	s, _ := r.Context().Value(sessionKey{}).(types.Session)
	return s
}

// IssueSession issues a session cookie
func (c *Controller) IssueSession(w http.ResponseWriter, user types.User) error {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.Email,
		"name": user.Name,
		"role": user.Role,
		"exp":  now.Add(sessionTTL).Unix(),
		"iat":  now.Unix(),
	})
	ss, err := token.SignedString(c.App.SessionSecret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    ss,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.App.SecureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
	return nil
}

// HandleLogin checks email and password and issues a session cookie.
func (c *Controller) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		c.writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	u, ok := c.App.Users[strings.ToLower(strings.TrimSpace(in.Email))]
	if !ok || !utils.CheckPassword(u.Hash, in.Password) {
		c.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := c.IssueSession(w, u); err != nil {
		c.App.Logger.Error("Failed to sign session", zap.Error(err))
		c.writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	c.writeJSON(w, http.StatusOK, types.Session{Email: u.Email, Name: u.Name, Role: u.Role})
}

// HandleLogout clears the session cookie.
func (c *Controller) HandleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the caller's identity.
func (c *Controller) HandleMe(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, currentSession(r))
}
