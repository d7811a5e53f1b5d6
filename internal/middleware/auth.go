package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Authorization header and context keys.
const (
	AuthHeaderKey  = "authorization"
	AuthTypeBearer = "bearer"
	AuthPayloadKey = "authorization_payload"
)

// Authorization errors.
var (
	ErrAuthHeaderNotFound  = errors.New("authorization header is not provided")
	ErrBadAuthHeaderFormat = errors.New("invalid authorization header format")
	ErrUnsupportedAuthType = errors.New("unsupported authorization type")
	ErrForbidden           = errors.New("insufficient role")
)

// AddAuthorization creates a token for username and role and sets it on r.
func AddAuthorization(r *http.Request, maker tokenpkg.Maker, authType, username, role string, d time.Duration) error {
	token, _, err := maker.CreateToken(username, role, d)
	if err != nil {
		return err
	}

	r.Header.Set(AuthHeaderKey, fmt.Sprintf("%s %s", authType, token))

	return nil
}

// AuthMiddleware verifies the bearer token and stores its payload in the gin context.
func AuthMiddleware(maker tokenpkg.Maker) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if len(header) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, web.Response{Error: ErrAuthHeaderNotFound.Error()})
			return
		}

		fields := strings.Fields(header)
		if len(fields) < 2 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, web.Response{Error: ErrBadAuthHeaderFormat.Error()})
			return
		}

		if strings.ToLower(fields[0]) != AuthTypeBearer {
			c.AbortWithStatusJSON(http.StatusUnauthorized, web.Response{Error: ErrUnsupportedAuthType.Error()})
			return
		}

		payload, err := maker.VerifyToken(fields[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, web.Response{Error: err.Error()})
			return
		}

		c.Set(AuthPayloadKey, payload)
		c.Next()
	}
}

// RequireRole lets the request through only when the token carries role.
// It must run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, ok := Payload(c)
		if !ok || payload.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, web.Response{Error: ErrForbidden.Error()})
			return
		}

		c.Next()
	}
}

// Payload returns the verified token payload of the request.
func Payload(c *gin.Context) (*tokenpkg.Payload, bool) {
	v, ok := c.Get(AuthPayloadKey)
	if !ok {
		return nil, false
	}

	p, ok := v.(*tokenpkg.Payload)

	return p, ok
}
