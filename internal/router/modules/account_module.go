package modules

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/skyport/internal/interface/http"
	"github.com/oksasatya/skyport/internal/interface/middleware"
)

// AccountModule wires registration, confirmation, login and the account page.
// Anonymous only: /register, /login
// Any: /, /confirm_email/:token
// Signed in: /logout, /account, /resend_confirmation
type AccountModule struct {
	Handler *handlers.AccountHandler
	Redis   *redis.Client
}

func NewAccountModule(h *handlers.AccountHandler, rdb *redis.Client) *AccountModule {
	return &AccountModule{Handler: h, Redis: rdb}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	// form submissions are limited per IP and path; viewing the form is not
	formLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath(),
		middleware.AllowMethods(http.MethodGet, http.MethodHead))
	confirmLimiter := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByIP(), nil)
	resendLimiter := middleware.RateLimit(m.Redis, 3, 10*time.Minute, middleware.KeyByUser(), nil)

	rg.GET("/", m.Handler.Index)
	rg.GET("/confirm_email/:token", confirmLimiter, m.Handler.ConfirmEmail)

	anon := rg.Group("/")
	anon.Use(middleware.RequireAnonymous(), formLimiter)
	{
		anon.GET("/register", m.Handler.RegisterPage)
		anon.POST("/register", m.Handler.Register)
		anon.GET("/login", m.Handler.LoginPage)
		anon.POST("/login", m.Handler.Login)
	}

	auth := rg.Group("/")
	auth.Use(middleware.RequireUser())
	{
		auth.GET("/logout", m.Handler.Logout)
		auth.GET("/account", m.Handler.Account)
		auth.POST("/account", m.Handler.Account)
		auth.POST("/resend_confirmation", resendLimiter, m.Handler.ResendConfirmation)
	}
}
