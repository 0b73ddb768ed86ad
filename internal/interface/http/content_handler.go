package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/skyport/internal/application"
	"github.com/oksasatya/skyport/internal/domain/entity"
	repo "github.com/oksasatya/skyport/internal/domain/repository"
	"github.com/oksasatya/skyport/internal/interface/middleware"
	"github.com/oksasatya/skyport/pkg/validation"
)

const msgObjectExists = "Thread with that title already exists!"

type ContentHandler struct {
	Content *application.ContentService
	View    *Renderer

	forms *validator.Validate
}

func NewContentHandler(content *application.ContentService, view *Renderer) *ContentHandler {
	return &ContentHandler{Content: content, View: view, forms: validation.New()}
}

type searchForm struct {
	Query string `form:"query" validate:"required,min=1,max=100"`
}

// formErrors turns a validation failure into template errors; ok is false
// for any other error.
func formErrors(err error) (map[string]string, bool) {
	var verr *application.ValidationError
	if errors.As(err, &verr) {
		return map[string]string{verr.Field: verr.Message}, true
	}
	return nil, false
}

func (h *ContentHandler) NewPostPage(c *gin.Context) {
	h.View.HTML(c, http.StatusOK, "post.html", gin.H{"Title": "New post", "Form": application.PostInput{}})
}

func (h *ContentHandler) CreatePost(c *gin.Context) {
	var in application.PostInput
	_ = c.ShouldBind(&in)

	_, err := h.Content.CreatePost(c.Request.Context(), middleware.CurrentUser(c), in)
	if err != nil {
		if errs, ok := formErrors(err); ok {
			h.View.HTML(c, http.StatusBadRequest, "post.html", gin.H{"Title": "New post", "Form": in, "Errors": errs})
			return
		}
		h.View.Error(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/account")
}

func (h *ContentHandler) PostDetail(c *gin.Context) {
	h.renderPost(c, http.StatusOK, application.CommentInput{}, nil)
}

func (h *ContentHandler) renderPost(c *gin.Context, code int, form application.CommentInput, errs map[string]string) {
	p, comments, err := h.Content.GetPost(c.Request.Context(), c.Param("id"))
	if application.IsNotFound(err) {
		h.View.NotFound(c)
		return
	}
	if err != nil {
		h.View.Error(c, err)
		return
	}
	h.View.HTML(c, code, "post_detail.html", gin.H{"Title": p.Title, "Post": p, "Comments": comments, "Form": form, "Errors": errs})
}

func (h *ContentHandler) CommentOnPost(c *gin.Context) {
	h.comment(c, entity.TargetPost, c.Param("id"), "/posts/"+url.PathEscape(c.Param("id")), h.renderPost)
}

func (h *ContentHandler) AddObjectPage(c *gin.Context) {
	h.View.HTML(c, http.StatusOK, "add_object.html", gin.H{"Title": "Add object", "Form": application.ObjectInput{}})
}

func (h *ContentHandler) CreateObject(c *gin.Context) {
	var in application.ObjectInput
	_ = c.ShouldBind(&in)

	o, err := h.Content.CreateObject(c.Request.Context(), in)
	if err != nil {
		errs, ok := formErrors(err)
		if errors.Is(err, repo.ErrDuplicateObject) {
			errs, ok = map[string]string{"name": msgObjectExists}, true
		}
		if !ok {
			h.View.Error(c, err)
			return
		}
		h.View.HTML(c, http.StatusBadRequest, "add_object.html", gin.H{"Title": "Add object", "Form": in, "Errors": errs})
		return
	}
	c.Redirect(http.StatusFound, "/stellar_object/"+url.PathEscape(o.Name))
}

func (h *ContentHandler) StellarObject(c *gin.Context) {
	h.renderObject(c, http.StatusOK, application.CommentInput{}, nil)
}

func (h *ContentHandler) renderObject(c *gin.Context, code int, form application.CommentInput, errs map[string]string) {
	o, comments, err := h.Content.GetObject(c.Request.Context(), c.Param("name"))
	if application.IsNotFound(err) {
		h.View.NotFound(c)
		return
	}
	if err != nil {
		h.View.Error(c, err)
		return
	}
	h.View.HTML(c, code, "stellar_object.html", gin.H{"Title": o.Name, "Object": o, "Comments": comments, "Form": form, "Errors": errs})
}

func (h *ContentHandler) CommentOnObject(c *gin.Context) {
	h.comment(c, entity.TargetObject, c.Param("name"), "/stellar_object/"+url.PathEscape(c.Param("name")), h.renderObject)
}

type pageFunc func(c *gin.Context, code int, form application.CommentInput, errs map[string]string)

func (h *ContentHandler) comment(c *gin.Context, target entity.CommentTarget, key, back string, rerender pageFunc) {
	var in application.CommentInput
	_ = c.ShouldBind(&in)

	_, err := h.Content.AddComment(c.Request.Context(), middleware.CurrentUser(c), target, key, in)
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, back)
	case application.IsNotFound(err):
		h.View.NotFound(c)
	default:
		if errs, ok := formErrors(err); ok {
			rerender(c, http.StatusBadRequest, in, errs)
			return
		}
		h.View.Error(c, err)
	}
}

func (h *ContentHandler) SearchPage(c *gin.Context) {
	h.View.HTML(c, http.StatusOK, "search.html", gin.H{"Title": "Search", "Form": searchForm{}})
}

func (h *ContentHandler) Search(c *gin.Context) {
	var form searchForm
	_ = c.ShouldBind(&form)
	form.Query = strings.TrimSpace(form.Query)
	if fe := validation.First(h.forms.Struct(form)); fe != nil {
		h.View.HTML(c, http.StatusBadRequest, "search.html", gin.H{
			"Title":  "Search",
			"Form":   form,
			"Errors": map[string]string{fe.Field: fe.Message},
		})
		return
	}
	c.Redirect(http.StatusFound, "/search-results/"+url.PathEscape(form.Query))
}

func (h *ContentHandler) SearchResults(c *gin.Context) {
	res, err := h.Content.Search(c.Request.Context(), c.Param("query"))
	if err != nil {
		h.View.Error(c, err)
		return
	}
	h.View.HTML(c, http.StatusOK, "search_results.html", gin.H{"Title": "Search results", "Results": res})
}

func (h *ContentHandler) UserDetail(c *gin.Context) {
	prof, err := h.Content.UserProfile(c.Request.Context(), c.Param("username"))
	if application.IsNotFound(err) {
		h.View.NotFound(c)
		return
	}
	if err != nil {
		h.View.Error(c, err)
		return
	}
	h.View.HTML(c, http.StatusOK, "user_detail.html", gin.H{"Title": prof.User.Username, "Profile": prof})
}
