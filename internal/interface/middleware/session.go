package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/skyport/internal/application"
	"github.com/oksasatya/skyport/internal/domain/entity"
	"github.com/oksasatya/skyport/pkg/helpers"
)

const ctxUserKey = "current_user"

// SessionResolver is the part of application.SessionManager LoadSession needs.
type SessionResolver interface {
	CurrentUser(ctx context.Context, token string) (*entity.User, error)
}

// LoadSession resolves the session cookie to the current user once per
// request. Requests whose session cannot be resolved continue as anonymous.
func LoadSession(sessions SessionResolver, cookies *helpers.Manager, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := cookies.Session(c)
		u, err := sessions.CurrentUser(c.Request.Context(), token)
		switch {
		case err != nil:
			logger.WithError(err).WithField("request_id", RequestID(c)).Error("resolve session failed")
			u = nil
		case u == nil && token != "":
			cookies.Clear(c)
		}

		c.Set(ctxUserKey, u)
		c.Request = c.Request.WithContext(application.WithUser(c.Request.Context(), u))
		c.Next()
	}
}

// CurrentUser returns the signed-in user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *entity.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*entity.User)
	return u
}
