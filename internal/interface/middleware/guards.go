package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAnonymous sends signed-in users to the home page.
func RequireAnonymous() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireUser sends anonymous visitors to the login page.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireConfirmed serves notConfirmed in place of the route for users who
// have not confirmed their email yet. It must run after RequireUser.
func RequireConfirmed(notConfirmed gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := CurrentUser(c); u != nil && !u.Confirmed {
			notConfirmed(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
