package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/skyport/config"
	"github.com/oksasatya/skyport/internal/container"
	esinfra "github.com/oksasatya/skyport/internal/infrastructure/elasticsearch"
	"github.com/oksasatya/skyport/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/skyport/internal/infrastructure/postgres"
	"github.com/oksasatya/skyport/internal/router"
	"github.com/oksasatya/skyport/pkg/helpers"
	"github.com/oksasatya/skyport/pkg/mailer"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()
	c := &container.Container{Config: cfg, Logger: logger}

	// Store
	switch cfg.StoreBackend {
	case "memory":
		logger.Warn("using the in-memory store; data is lost on restart")
		c.Users = memory.NewUserRepository()
		c.Content = memory.NewContentRepository()
	default:
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()

		// Run migrations using database/sql with pgx stdlib
		if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		c.PGPool = pool
		c.Users = pginfra.NewUserRepository(pool)
		c.Content = pginfra.NewContentRepository(pool)
	}

	// Redis holds sessions, so it must be up
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()
	if err := helpers.PingRedis(ctx, rdb); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	c.Redis = rdb

	// Mail
	if cfg.MailSendEnabled {
		switch {
		case cfg.RabbitMQEnabled:
			pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
			if err != nil {
				log.Fatalf("failed to connect to rabbitmq: %v", err)
			}
			defer pub.Close()
			c.RabbitPub = pub
		case cfg.MailgunConfigured():
			c.Mailgun = mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, mailer.SenderAddress(cfg.MailSenderName, cfg.MailgunSender), cfg.MailgunRegion)
		default:
			logger.Warn("MAIL_SEND_ENABLED is set but neither RabbitMQ nor Mailgun is configured; confirmation emails will be reported as unsent")
		}
	} else {
		logger.Info("MAIL_SEND_ENABLED=false; confirmation links are logged instead of sent")
	}

	// Search
	if cfg.SearchBackend == "elasticsearch" {
		es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			log.Fatalf("failed to init elasticsearch client: %v", err)
		}
		if err := helpers.PingES(ctx, es); err != nil {
			log.Fatalf("failed to reach elasticsearch: %v", err)
		}
		index := esinfra.NewSearchIndex(es, cfg.ESIndexPrefix)
		if err := index.EnsureIndices(ctx); err != nil {
			log.Fatalf("failed to ensure search indices: %v", err)
		}
		c.ES = es
		c.Index = index
	}

	c.Wire()

	r, err := router.NewEngine(c)
	if err != nil {
		log.Fatalf("failed to build router: %v", err)
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
		return
	}
	logger.Info("server exited properly")
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
