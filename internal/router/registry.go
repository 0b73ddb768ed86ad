package router

import "github.com/gin-gonic/gin"

// Registry collects middleware and modules and registers them in one pass.
// Page modules mount at the root, API modules under /api.
type Registry struct {
	Engine         *gin.Engine
	middlewares    []gin.HandlerFunc
	apiMiddlewares []gin.HandlerFunc
	modules        []Module
	apiModules     []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine}
}

// Use adds middleware to every route, including the 404 handler.
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

// UseAPI adds middleware to the /api group only.
func (r *Registry) UseAPI(mw ...gin.HandlerFunc) {
	r.apiMiddlewares = append(r.apiMiddlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

func (r *Registry) AddAPI(mod Module) {
	r.apiModules = append(r.apiModules, mod)
}

// RegisterAll must run after every Use; groups copy their handlers when created.
func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.Engine.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(&r.Engine.RouterGroup)
	}
	api := r.Engine.Group("/api", r.apiMiddlewares...)
	for _, m := range r.apiModules {
		m.Register(api)
	}
}
