package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/skyport/internal/application"
	"github.com/oksasatya/skyport/internal/interface/middleware"
	"github.com/oksasatya/skyport/pkg/response"
)

type PagesHandler struct {
	View *Renderer
	// Checks probes backing services by name for the health endpoint.
	Checks map[string]func(ctx context.Context) error
}

func NewPagesHandler(view *Renderer, checks map[string]func(ctx context.Context) error) *PagesHandler {
	return &PagesHandler{View: view, Checks: checks}
}

func (h *PagesHandler) About(c *gin.Context) {
	h.View.HTML(c, http.StatusOK, "about.html", gin.H{"Title": "About"})
}

func (h *PagesHandler) NotFound(c *gin.Context) {
	h.View.NotFound(c)
}

type sessionView struct {
	State     application.AccountState `json:"state"`
	Username  string                   `json:"username,omitempty"`
	Confirmed bool                     `json:"confirmed"`
}

// Session reports where the caller sits in the account lifecycle.
func (h *PagesHandler) Session(c *gin.Context) {
	u := middleware.CurrentUser(c)
	view := sessionView{State: application.StateOf(u)}
	if u != nil {
		view.Username = u.Username
		view.Confirmed = u.Confirmed
	}
	response.Success(c, http.StatusOK, view, "session", nil)
}

func (h *PagesHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	healthy := true
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	if !healthy {
		response.Error[any](c, http.StatusServiceUnavailable, "unhealthy", status)
		return
	}
	response.Success(c, http.StatusOK, status, "healthy", nil)
}
