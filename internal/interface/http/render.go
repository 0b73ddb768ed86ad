package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/skyport/internal/interface/middleware"
	"github.com/oksasatya/skyport/pkg/helpers"
)

// Renderer fills the data every page shares and renders HTML templates.
type Renderer struct {
	AppName     string
	CompanyName string
	Cookies     *helpers.Manager
	Logger      *logrus.Logger
}

func NewRenderer(appName, companyName string, cookies *helpers.Manager, logger *logrus.Logger) *Renderer {
	return &Renderer{AppName: appName, CompanyName: companyName, Cookies: cookies, Logger: logger}
}

// HTML renders name with data layered over the shared page data.
func (r *Renderer) HTML(c *gin.Context, code int, name string, data gin.H) {
	page := gin.H{
		"AppName":     r.AppName,
		"CompanyName": r.CompanyName,
		"User":        middleware.CurrentUser(c),
		"Flash":       r.Cookies.PopFlash(c),
		"Errors":      map[string]string{},
		"Title":       "",
	}
	for k, v := range data {
		page[k] = v
	}
	c.HTML(code, name, page)
}

// NotFound renders the 404 page.
func (r *Renderer) NotFound(c *gin.Context) {
	r.HTML(c, http.StatusNotFound, "404.html", gin.H{"Title": "Not found"})
}

// Error logs err against the request id and renders the generic error page.
func (r *Renderer) Error(c *gin.Context, err error) {
	rid := middleware.RequestID(c)
	r.Logger.WithError(err).WithFields(logrus.Fields{
		"request_id": rid,
		"path":       c.Request.URL.Path,
	}).Error("request failed")
	r.HTML(c, http.StatusInternalServerError, "error.html", gin.H{"Title": "Error", "RequestID": rid})
}
