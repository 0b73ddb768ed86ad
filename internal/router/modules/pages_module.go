package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/skyport/internal/interface/http"
)

type PagesModule struct {
	Handler *handlers.PagesHandler
}

func NewPagesModule(h *handlers.PagesHandler) *PagesModule {
	return &PagesModule{Handler: h}
}

func (m *PagesModule) Register(rg *gin.RouterGroup) {
	rg.GET("/about", m.Handler.About)
}

// APIModule serves the JSON endpoints under /api.
type APIModule struct {
	Handler *handlers.PagesHandler
}

func NewAPIModule(h *handlers.PagesHandler) *APIModule {
	return &APIModule{Handler: h}
}

func (m *APIModule) Register(rg *gin.RouterGroup) {
	rg.GET("/session", m.Handler.Session)
	rg.GET("/health", m.Handler.Health)
}
