package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/skyport/internal/application"
	repo "github.com/oksasatya/skyport/internal/domain/repository"
	"github.com/oksasatya/skyport/internal/interface/middleware"
	"github.com/oksasatya/skyport/pkg/helpers"
	"github.com/oksasatya/skyport/pkg/validation"
)

const (
	msgLoginFailed    = "Login failed. Check your username and/or password"
	msgEmailConfirmed = "Thank you! Your email has been confirmed."
	msgInvalidLink    = "This confirmation link is invalid."
	msgRegistered     = "Your account has been created. Check your email for the confirmation link, then log in."
	msgEmailNotSent   = "Your account has been created, but we could not send your confirmation email. Log in and request a new link from your account page."
	msgResent         = "A new confirmation link is on its way."
	msgResendFailed   = "We could not send your confirmation email. Please try again later."
	msgUsernameTaken  = "Username is taken"
	msgEmailTaken     = "Email is taken"
)

type AccountHandler struct {
	Accounts *application.AccountService
	Sessions *application.SessionManager
	Content  *application.ContentService
	View     *Renderer
	Cookies  *helpers.Manager

	forms *validator.Validate
}

func NewAccountHandler(accounts *application.AccountService, sessions *application.SessionManager, content *application.ContentService, view *Renderer, cookies *helpers.Manager) *AccountHandler {
	return &AccountHandler{Accounts: accounts, Sessions: sessions, Content: content, View: view, Cookies: cookies, forms: validation.New()}
}

type loginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// Index sends signed-in users to their account page.
func (h *AccountHandler) Index(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/account")
		return
	}
	h.View.HTML(c, http.StatusOK, "index.html", nil)
}

func (h *AccountHandler) RegisterPage(c *gin.Context) {
	h.View.HTML(c, http.StatusOK, "register.html", gin.H{"Title": "Register", "Form": application.RegisterInput{}})
}

func (h *AccountHandler) Register(c *gin.Context) {
	var in application.RegisterInput
	_ = c.ShouldBind(&in)

	res, err := h.Accounts.Register(c.Request.Context(), in)
	if err != nil {
		field, msg, ok := registerFieldError(err)
		if !ok {
			h.View.Error(c, err)
			return
		}
		in.Password, in.ConfirmPassword = "", ""
		h.View.HTML(c, http.StatusBadRequest, "register.html", gin.H{
			"Title":  "Register",
			"Form":   in,
			"Errors": map[string]string{field: msg},
		})
		return
	}

	if res.EmailSent {
		h.Cookies.SetFlash(c, msgRegistered)
	} else {
		h.Cookies.SetFlash(c, msgEmailNotSent)
	}
	c.Redirect(http.StatusFound, "/login")
}

// registerFieldError maps registration failures that belong on the form.
func registerFieldError(err error) (field, msg string, ok bool) {
	var verr *application.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Field, verr.Message, true
	case errors.Is(err, repo.ErrDuplicateUsername):
		return "username", msgUsernameTaken, true
	case errors.Is(err, repo.ErrDuplicateEmail):
		return "email", msgEmailTaken, true
	}
	return "", "", false
}

func (h *AccountHandler) ConfirmEmail(c *gin.Context) {
	_, err := h.Accounts.ConfirmEmail(c.Request.Context(), c.Param("token"))
	switch {
	case err == nil:
		h.View.HTML(c, http.StatusOK, "confirm_email.html", gin.H{"Title": "Email confirmed", "Message": msgEmailConfirmed, "Confirmed": true})
	case errors.Is(err, application.ErrInvalidToken), errors.Is(err, application.ErrUnknownConfirmation):
		h.View.HTML(c, http.StatusBadRequest, "confirm_email.html", gin.H{"Title": "Invalid link", "Message": msgInvalidLink})
	default:
		h.View.Error(c, err)
	}
}

func (h *AccountHandler) LoginPage(c *gin.Context) {
	h.View.HTML(c, http.StatusOK, "login.html", gin.H{"Title": "Login"})
}

func (h *AccountHandler) Login(c *gin.Context) {
	var form loginForm
	_ = c.ShouldBind(&form)
	if fe := validation.First(h.forms.Struct(form)); fe != nil {
		h.View.HTML(c, http.StatusBadRequest, "login.html", gin.H{
			"Title":    "Login",
			"Username": form.Username,
			"Errors":   map[string]string{fe.Field: fe.Message},
		})
		return
	}

	ctx := c.Request.Context()
	u, err := h.Accounts.Login(ctx, form.Username, form.Password)
	if errors.Is(err, application.ErrInvalidCredentials) {
		h.View.HTML(c, http.StatusUnauthorized, "login.html", gin.H{"Title": "Login", "Username": form.Username, "Error": msgLoginFailed})
		return
	}
	if err != nil {
		h.View.Error(c, err)
		return
	}

	sess, err := h.Sessions.Login(ctx, u, h.Cookies.Session(c), application.SessionMeta{
		IP:        middleware.ClientIP(c),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		h.View.Error(c, err)
		return
	}
	h.Cookies.SetSession(c, sess.Token, sess.ExpiresAt)
	c.Redirect(http.StatusFound, "/")
}

func (h *AccountHandler) Logout(c *gin.Context) {
	if err := h.Sessions.Logout(c.Request.Context(), h.Cookies.Session(c)); err != nil {
		h.View.Logger.WithError(err).WithField("request_id", middleware.RequestID(c)).Warn("logout failed")
	}
	h.Cookies.Clear(c)
	c.Redirect(http.StatusFound, "/")
}

// Account shows the confirmed account page, or the confirmation prompt.
func (h *AccountHandler) Account(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if !u.Confirmed {
		h.NotConfirmed(c)
		return
	}
	posts, err := h.Content.PostsBy(c.Request.Context(), u.Username)
	if err != nil {
		h.View.Error(c, err)
		return
	}
	h.View.HTML(c, http.StatusOK, "account.html", gin.H{"Title": "Account", "Posts": posts})
}

// NotConfirmed is served in place of pages that need a confirmed email.
func (h *AccountHandler) NotConfirmed(c *gin.Context) {
	h.notConfirmed(c, "")
}

func (h *AccountHandler) notConfirmed(c *gin.Context, notice string) {
	u := middleware.CurrentUser(c)
	h.View.HTML(c, http.StatusOK, "not_confirmed.html", gin.H{
		"Title":  "Confirm your email",
		"Name":   u.Username,
		"Email":  u.Email,
		"Notice": notice,
	})
}

func (h *AccountHandler) ResendConfirmation(c *gin.Context) {
	err := h.Accounts.ResendConfirmation(c.Request.Context(), middleware.CurrentUser(c))
	var derr *application.DeliveryError
	switch {
	case err == nil:
		h.notConfirmed(c, msgResent)
	case errors.Is(err, application.ErrAlreadyConfirmed):
		c.Redirect(http.StatusFound, "/account")
	case errors.As(err, &derr):
		h.notConfirmed(c, msgResendFailed)
	default:
		h.View.Error(c, err)
	}
}
