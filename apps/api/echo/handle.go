package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/session"
)

const (
	sessionCookie = "csi_session"
	sessionHeader = "X-Session-Token"
	sessionQuery  = "token" // browsers cannot set headers on websocket upgrades

	contextStoreKey  = "sessionStore"
	contextHandleKey = "sessionHandle"
)

var errInvalidHandle = errors.New("invalid session token")

// Claims identifies a session handle. It carries no identity and never expires:
// the handle only namespaces the persisted session, like a browser's local storage.
type Claims struct {
	jwt.StandardClaims
}

type handleSigner struct {
	key    []byte
	issuer string
}

// Sign returns the signed token of handle.
func (hs handleSigner) Sign(handle string) (string, error) {
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:   hs.issuer,
			Subject:  handle,
			IssuedAt: time.Now().Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(hs.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Parse returns the session handle carried by tokenStr.
func (hs handleSigner) Parse(tokenStr string) (string, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errInvalidHandle
		}
		return hs.key, nil
	})
	if err != nil || !token.Valid {
		return "", errInvalidHandle
	}
	if _, err = uuid.Parse(claims.Subject); err != nil {
		return "", errInvalidHandle
	}
	return claims.Subject, nil
}

func extractToken(ctx echo.Context) string {
	req := ctx.Request()
	if auth := req.Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	if token := ctx.QueryParam(sessionQuery); token != "" {
		return token
	}
	if cookie, err := ctx.Cookie(sessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// sessionMiddleware resolves the session handle of the request and puts its session.Store in the context.
// A missing or invalid token gets a brand new handle, returned in the X-Session-Token header and cookie.
func (s *server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		handle, err := s.handles.Parse(extractToken(ctx))
		if err != nil {
			handle = uuid.NewString()
			token, err := s.handles.Sign(handle)
			if err != nil {
				return errors.Wrap(err, "minting session handle")
			}
			ctx.Response().Header().Set(sessionHeader, token)
			ctx.SetCookie(&http.Cookie{
				Name:     sessionCookie,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			s.deps.Logger.Debug("session handle minted", core.SessionHandle(handle))
		}

		ctx.Set(contextHandleKey, handle)
		ctx.Set(contextStoreKey, s.deps.Sessions.Get(ctx.Request().Context(), handle))
		return next(ctx)
	}
}

func getContextStore(ctx echo.Context) (*session.Store, error) {
	if st, ok := ctx.Get(contextStoreKey).(*session.Store); ok {
		return st, nil
	}
	return nil, errSessionNotFound
}

func getContextHandle(ctx echo.Context) string {
	handle, _ := ctx.Get(contextHandleKey).(string)
	return handle
}
