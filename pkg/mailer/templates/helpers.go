package templates

import (
	"time"

	"github.com/oksasatya/skyport/config"
)

type Option func(*EmailData)

func WithExpiresIn(dur time.Duration) Option {
	return func(d *EmailData) {
		if dur <= 0 {
			return
		}
		utc := time.Now().Add(dur).UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04")
	}
}

// NewBaseEmailData fills the common fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ, email string, opts ...Option) EmailData {
	d := EmailData{
		Email:          email,
		RecipientEmail: email,
		Type:           typ,
		CompanyName:    cfg.CompanyName,
		AppName:        cfg.AppName,
		SupportURL:     cfg.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewConfirmEmailData(cfg *config.Config, email, confirmURL string, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, ConfirmEmail, email, opts...)
	d.ConfirmURL = confirmURL
	return ToMap(d)
}
