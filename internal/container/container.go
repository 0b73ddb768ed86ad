package container

import (
	"context"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/skyport/config"
	"github.com/oksasatya/skyport/internal/application"
	repo "github.com/oksasatya/skyport/internal/domain/repository"
	"github.com/oksasatya/skyport/pkg/helpers"
	"github.com/oksasatya/skyport/pkg/mailer"
)

// Container holds the components built at startup and shared by the router
// modules. Infrastructure fields are filled by the caller, then Wire builds
// the services on top of them.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	// Infrastructure; nil when the backend is not in use
	PGPool    *pgxpool.Pool
	Redis     *redis.Client
	ES        *elasticsearch.Client
	RabbitPub *helpers.RabbitPublisher
	Mailgun   *mailer.Mailgun

	Users    repo.UserRepository
	Content  repo.ContentRepository
	Index    application.SearchIndex
	Notifier application.Notifier

	Cookies    *helpers.Manager
	Accounts   *application.AccountService
	Sessions   *application.SessionManager
	ContentSvc *application.ContentService
}

// Wire builds the services. A nil Notifier is replaced by the default one for
// the configured transports.
func (c *Container) Wire() {
	cfg := c.Config
	if c.Notifier == nil {
		c.Notifier = c.defaultNotifier()
	}

	c.Cookies = helpers.NewCookie(cfg.SessionCookieName, cfg.CookieDomain, cfg.CookieSecure)
	c.Accounts = application.NewAccountService(
		c.Users,
		helpers.NewConfirmTokenCodec(cfg.ConfirmTokenSecret, cfg.ConfirmTokenTTL),
		c.Notifier,
		c.Index,
		c.Logger,
		cfg.PublicBaseURL,
		cfg.MailTimeout,
	)
	c.Sessions = application.NewSessionManager(
		c.Redis,
		helpers.NewSessionTokenManager(cfg.SessionSecret, cfg.SessionTTL),
		c.Users,
		c.Logger,
	)
	c.ContentSvc = application.NewContentService(c.Content, c.Users, c.Index, c.Logger)
}

// defaultNotifier prefers the queue, then direct Mailgun delivery. Without
// either the link is only logged, and reported as unsent when sending mail
// was requested.
func (c *Container) defaultNotifier() application.Notifier {
	switch {
	case c.RabbitPub != nil:
		return mailer.NewQueueNotifier(c.RabbitPub, c.Config)
	case c.Mailgun != nil:
		return mailer.NewMailgunNotifier(c.Mailgun, c.Config)
	default:
		return &mailer.LogNotifier{Logger: c.Logger, Fail: c.Config.MailSendEnabled}
	}
}

// RateLimitRedis returns the client used by rate limiters, nil when they are off.
func (c *Container) RateLimitRedis() *redis.Client {
	if !c.Config.RateLimitEnabled {
		return nil
	}
	return c.Redis
}

// HealthChecks probes every configured backend.
func (c *Container) HealthChecks() map[string]func(ctx context.Context) error {
	checks := map[string]func(ctx context.Context) error{}
	if c.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() }
	}
	if c.PGPool != nil {
		checks["postgres"] = c.PGPool.Ping
	}
	if c.ES != nil {
		checks["elasticsearch"] = func(ctx context.Context) error { return helpers.PingES(ctx, c.ES) }
	}
	return checks
}
