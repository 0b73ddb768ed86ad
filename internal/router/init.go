package router

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/skyport/internal/container"
	handlers "github.com/oksasatya/skyport/internal/interface/http"
	"github.com/oksasatya/skyport/internal/interface/middleware"
	"github.com/oksasatya/skyport/internal/router/modules"
	"github.com/oksasatya/skyport/web"
)

// NewEngine builds the gin engine with templates, global middleware and every
// module registered.
func NewEngine(c *container.Container) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)

	reg := NewRegistry(r)
	reg.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.RealIP(),
		middleware.SecureHeaders(),
	)
	if c.Config.HTTPLogEnabled {
		reg.Use(middleware.AccessLog(c.Logger))
	}
	if origins := c.Config.CORSOrigins(); len(origins) > 0 {
		// global so preflight requests reach it, but only /api answers them
		reg.Use(apiOnly(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		})))
	}
	reg.Use(middleware.LoadSession(c.Sessions, c.Cookies, c.Logger))

	InitModules(reg, c)
	reg.RegisterAll()
	return r, nil
}

func apiOnly(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			h(c)
		}
	}
}

// InitModules builds the handlers from the container and adds their modules
// to the registry.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config
	view := handlers.NewRenderer(cfg.AppName, cfg.CompanyName, c.Cookies, c.Logger)

	account := handlers.NewAccountHandler(c.Accounts, c.Sessions, c.ContentSvc, view, c.Cookies)
	content := handlers.NewContentHandler(c.ContentSvc, view)
	pages := handlers.NewPagesHandler(view, c.HealthChecks())

	limiter := c.RateLimitRedis()
	r.Add(modules.NewAccountModule(account, limiter))
	r.Add(modules.NewContentModule(content, account.NotConfirmed))
	r.Add(modules.NewPagesModule(pages))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(limiter))
	}
	r.AddAPI(modules.NewAPIModule(pages))

	r.Engine.NoRoute(pages.NotFound)
}
