package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/skyport/internal/interface/http"
	"github.com/oksasatya/skyport/internal/interface/middleware"
)

// ContentModule wires posts, stellar objects, search and user pages. Every
// route needs a session; unconfirmed users get NotConfirmed instead.
type ContentModule struct {
	Handler      *handlers.ContentHandler
	NotConfirmed gin.HandlerFunc
}

func NewContentModule(h *handlers.ContentHandler, notConfirmed gin.HandlerFunc) *ContentModule {
	return &ContentModule{Handler: h, NotConfirmed: notConfirmed}
}

func (m *ContentModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/")
	g.Use(middleware.RequireUser(), middleware.RequireConfirmed(m.NotConfirmed))
	{
		g.GET("/post", m.Handler.NewPostPage)
		g.POST("/post", m.Handler.CreatePost)
		g.GET("/posts/:id", m.Handler.PostDetail)
		g.POST("/posts/:id", m.Handler.CommentOnPost)

		g.GET("/request_object", m.Handler.AddObjectPage)
		g.POST("/request_object", m.Handler.CreateObject)
		g.GET("/stellar_object/:name", m.Handler.StellarObject)
		g.POST("/stellar_object/:name", m.Handler.CommentOnObject)

		g.GET("/search", m.Handler.SearchPage)
		g.POST("/search", m.Handler.Search)
		g.GET("/search-results/:query", m.Handler.SearchResults)

		g.GET("/user/:username", m.Handler.UserDetail)
	}
}
