package web

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ===== Session/JWT primitives =====

type AuthConfig struct {
	AdminToken   string
	HMACSecret   []byte
	CookieName   string
	SecureCookie bool
	TTL          time.Duration
}

// AuthManager guards the admin surface. Two credentials are accepted: the
// static admin token from config, and short-lived HS256 session tokens minted
// by the login endpoint in exchange for it.
type AuthManager struct{ cfg AuthConfig }

func NewAuthManager(adminToken, secret string, secure bool, ttl time.Duration) *AuthManager {
	if secret == "" {
		// Without a signing key, only the static token is usable.
		secret = adminToken
	}
	return &AuthManager{cfg: AuthConfig{
		AdminToken:   adminToken,
		HMACSecret:   []byte(secret),
		CookieName:   "admin_session",
		SecureCookie: secure, // true in prod (TLS)
		TTL:          ttl,
	}}
}

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Mint issues a session token and sets it as an HttpOnly cookie.
func (a *AuthManager) Mint(w http.ResponseWriter) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(a.cfg.TTL)
	claims := AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Subject:   "admin",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.cfg.HMACSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	c := &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(a.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	}
	http.SetCookie(w, c)
	return signed, expiresAt, nil
}

// CheckAdminToken compares a presented credential against the static admin
// token in constant time.
func (a *AuthManager) CheckAdminToken(token string) bool {
	if a.cfg.AdminToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(a.cfg.AdminToken)) == 1
}

// Authenticate accepts, in order: the static admin token or a session JWT from
// the Authorization header, the session cookie, or a `token` query parameter.
// The query parameter exists for websocket clients, which cannot set headers.
func (a *AuthManager) Authenticate(r *http.Request) error {
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			tok := strings.TrimSpace(hdr[7:])
			if a.CheckAdminToken(tok) {
				return nil
			}
			if _, err := a.parse(tok); err == nil {
				return nil
			}
		}
		return errors.New("invalid token")
	}
	if c, err := r.Cookie(a.cfg.CookieName); err == nil {
		if _, err := a.parse(c.Value); err == nil {
			return nil
		}
		return errors.New("invalid token")
	}
	if tok := r.URL.Query().Get("token"); tok != "" {
		if a.CheckAdminToken(tok) {
			return nil
		}
		if _, err := a.parse(tok); err == nil {
			return nil
		}
		return errors.New("invalid token")
	}
	return errors.New("missing token")
}

func (a *AuthManager) parse(tok string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.cfg.HMACSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
