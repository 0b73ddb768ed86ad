package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/skyport/internal/domain/entity"
	repo "github.com/oksasatya/skyport/internal/domain/repository"
	"github.com/oksasatya/skyport/pkg/helpers"
)

// SessionManager keeps authenticated sessions in Redis. The browser only
// holds a signed token naming the session id and username.
type SessionManager struct {
	Redis  *redis.Client
	Tokens *helpers.SessionTokenManager
	Users  repo.UserRepository
	Logger *logrus.Logger
}

func NewSessionManager(rdb *redis.Client, tokens *helpers.SessionTokenManager, users repo.UserRepository, logger *logrus.Logger) *SessionManager {
	return &SessionManager{Redis: rdb, Tokens: tokens, Users: users, Logger: logger}
}

// SessionMeta is recorded alongside the session for auditing.
type SessionMeta struct {
	IP        string
	UserAgent string
}

type Session struct {
	ID        string
	Token     string
	ExpiresAt time.Time
}

func sessionKey(sid string) string {
	return "session:" + sid
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Login starts a session for u. A session the browser already held is
// destroyed first so it cannot be reused.
func (m *SessionManager) Login(ctx context.Context, u *entity.User, priorToken string, meta SessionMeta) (Session, error) {
	if priorToken != "" {
		if err := m.Logout(ctx, priorToken); err != nil {
			return Session{}, err
		}
	}

	sid := uuid.NewString()
	token, exp, err := m.Tokens.Generate(sid, u.Username)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}

	key := sessionKey(sid)
	pipe := m.Redis.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"username":   u.Username,
		"created_at": nowRFC3339(),
		"ip":         meta.IP,
		"user_agent": meta.UserAgent,
	})
	pipe.Expire(ctx, key, m.Tokens.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}

	m.Logger.WithFields(logrus.Fields{"user_id": u.ID, "sid": sid}).Info("session started")
	return Session{ID: sid, Token: token, ExpiresAt: exp}, nil
}

// Logout destroys the session behind token. Unknown or invalid tokens are
// not an error: there is nothing left to destroy.
func (m *SessionManager) Logout(ctx context.Context, token string) error {
	claims, err := m.Tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := m.Redis.Del(ctx, sessionKey(claims.SessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CurrentUser resolves token to its user. Anything that does not lead to a
// live session for an existing account is anonymous (nil, nil); only
// infrastructure failures are returned as errors.
func (m *SessionManager) CurrentUser(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := m.Tokens.Parse(token)
	if err != nil {
		return nil, nil
	}

	key := sessionKey(claims.SessionID)
	username, err := m.Redis.HGet(ctx, key, "username").Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if username != claims.Username() {
		return nil, nil
	}

	u, err := m.Users.GetByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		// account is gone; drop the orphaned session
		if dErr := m.Redis.Del(ctx, key).Err(); dErr != nil {
			m.Logger.WithError(dErr).WithField("sid", claims.SessionID).Warn("delete orphaned session failed")
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}
	return u, nil
}
