package main

import (
	"context"
	"errors"
	"log"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/skyport/config"
	"github.com/oksasatya/skyport/internal/domain/entity"
	repo "github.com/oksasatya/skyport/internal/domain/repository"
	esinfra "github.com/oksasatya/skyport/internal/infrastructure/elasticsearch"
	pginfra "github.com/oksasatya/skyport/internal/infrastructure/postgres"
	"github.com/oksasatya/skyport/pkg/helpers"
)

const (
	demoUsername = "demoUser"
	demoEmail    = "demo@skyport.local"
	demoPassword = "password123"
)

var demoObjects = []string{"Andromeda", "Orion Nebula", "Pleiades", "Betelgeuse", "Crab Nebula"}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	users := pginfra.NewUserRepository(pool)
	content := pginfra.NewContentRepository(pool)

	var index *esinfra.SearchIndex
	if cfg.SearchBackend == "elasticsearch" {
		es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			log.Fatalf("failed to init elasticsearch client: %v", err)
		}
		index = esinfra.NewSearchIndex(es, cfg.ESIndexPrefix)
		if err := index.EnsureIndices(ctx); err != nil {
			log.Fatalf("failed to ensure search indices: %v", err)
		}
	}

	u, err := seedUser(ctx, users)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	logger.WithFields(logrus.Fields{"username": u.Username, "email": u.Email, "password": demoPassword}).Info("seeded confirmed demo user")
	if index != nil {
		if err := index.IndexUser(ctx, *u); err != nil {
			logger.WithError(err).Warn("index user failed")
		}
	}

	for _, name := range demoObjects {
		o := &entity.StellarObject{Name: name}
		err := content.CreateObject(ctx, o)
		if errors.Is(err, repo.ErrDuplicateObject) {
			continue
		}
		if err != nil {
			log.Fatalf("failed to seed object %q: %v", name, err)
		}
		logger.WithField("object", name).Info("seeded stellar object")
		if index != nil {
			if err := index.IndexObject(ctx, *o); err != nil {
				logger.WithError(err).Warn("index object failed")
			}
		}
	}
}

// seedUser creates the demo user or reuses it, and marks it confirmed.
func seedUser(ctx context.Context, users repo.UserRepository) (*entity.User, error) {
	hash, err := helpers.HashPassword(demoPassword)
	if err != nil {
		return nil, err
	}
	u := &entity.User{Username: demoUsername, Email: demoEmail, PasswordHash: hash}
	err = users.Create(ctx, u)
	switch {
	case errors.Is(err, repo.ErrDuplicateUsername):
		if u, err = users.GetByUsername(ctx, demoUsername); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}
	if err := users.SetConfirmed(ctx, u.ID); err != nil {
		return nil, err
	}
	return users.GetByUsername(ctx, demoUsername)
}
