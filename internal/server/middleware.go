package server

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kutbudev/cardboard/internal/auth"
	"github.com/kutbudev/cardboard/internal/errors"
	"github.com/kutbudev/cardboard/internal/policy"
)

const (
	identityKey = "identity"
	schemeKey   = "scheme"
)

var errInvalidToken = errors.New("Given token not valid for any token type", errors.Unauthorized())

// RequestLogger attaches log to the request context and writes one line
// per request once it completes.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(log.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		if status >= 500 {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Uint("user_id", identity(c).UserID()).
			Msg("request")
	}
}

// ForwardedScheme records the scheme the client used. X-Forwarded-Proto
// is only believed when the connection comes from one of trusted.
func ForwardedScheme(trusted []netip.Prefix) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		switch proto := strings.ToLower(c.GetHeader("X-Forwarded-Proto")); proto {
		case "http", "https":
			if fromTrustedProxy(c, trusted) {
				scheme = proto
			}
		}

		c.Set(schemeKey, scheme)
		c.Next()
	}
}

func fromTrustedProxy(c *gin.Context, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(c.RemoteIP())
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Authenticator resolves the caller of every request.
type Authenticator struct {
	Verifier *auth.Verifier
	// RejectInvalid fails requests carrying a bad token instead of
	// treating them as anonymous.
	RejectInvalid bool
}

func (a *Authenticator) Authenticate(c *gin.Context) {
	id := a.Verifier.Identify(c.Request.Context(), c.GetHeader("Authorization"))
	if id.State == auth.Unavailable {
		abortWithError(c, fmt.Errorf("identify caller: %w", id.Reason))
		return
	}
	if id.State == auth.Invalid {
		zerolog.Ctx(c.Request.Context()).Debug().Err(id.Reason).Msg("invalid credentials")
		if a.RejectInvalid {
			abortWithError(c, errInvalidToken)
			return
		}
	}

	c.Set(identityKey, id)
	c.Next()
}

// Gate aborts requests that g rejects.
func Gate(g policy.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := g.Check(c.Request.Method, identity(c)); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// identity returns the caller set by Authenticate, anonymous if unset.
func identity(c *gin.Context) auth.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(auth.Identity); ok {
			return id
		}
	}
	return auth.Identity{State: auth.Anonymous}
}
