package helpers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
)

const flashCookie = "skyport_flash"

type Manager struct {
	Name   string
	Domain string
	Secure bool
}

func NewCookie(name, domain string, secure bool) *Manager {
	return &Manager{Name: name, Domain: domain, Secure: secure}
}

// SetSession writes the signed session token.
func (m *Manager) SetSession(c *gin.Context, token string, exp time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.Name, token, maxAgeFrom(exp), "/", m.Domain, m.Secure, true)
}

// Session returns the session token sent by the browser, if any.
func (m *Manager) Session(c *gin.Context) string {
	v, err := c.Cookie(m.Name)
	if err != nil {
		return ""
	}
	return v
}

func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.Name, "", -1, "/", m.Domain, m.Secure, true)
}

// SetFlash stores a one-shot message shown by the next rendered page.
func (m *Manager) SetFlash(c *gin.Context, msg string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, url.QueryEscape(msg), 60, "/", m.Domain, m.Secure, true)
}

// PopFlash reads and clears the flash message.
func (m *Manager) PopFlash(c *gin.Context) string {
	v, err := c.Cookie(flashCookie)
	if err != nil || v == "" {
		return ""
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, "", -1, "/", m.Domain, m.Secure, true)
	msg, err := url.QueryUnescape(v)
	if err != nil {
		return ""
	}
	return msg
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Seconds())
	if sec < 0 {
		return 0
	}
	return sec
}
