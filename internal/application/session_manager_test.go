package application

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/skyport/internal/domain/entity"
	"github.com/oksasatya/skyport/internal/infrastructure/memory"
	"github.com/oksasatya/skyport/pkg/helpers"
)

type sessionFixture struct {
	mr    *miniredis.Miniredis
	sm    *SessionManager
	users *memory.UserRepository
	alice *entity.User
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	users := memory.NewUserRepository()
	alice := &entity.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h"}
	require.NoError(t, users.Create(context.Background(), alice))

	tokens := helpers.NewSessionTokenManager("test-session-secret", time.Hour)
	return &sessionFixture{
		mr:    mr,
		sm:    NewSessionManager(rdb, tokens, users, helpers.NewDiscardLogger()),
		users: users,
		alice: alice,
	}
}

func TestSessionManager_LoginAndCurrentUser(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	sess, err := f.sm.Login(ctx, f.alice, "", SessionMeta{IP: "10.0.0.1", UserAgent: "curl"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, 5*time.Second)

	key := "session:" + sess.ID
	assert.True(t, f.mr.Exists(key))
	assert.Equal(t, time.Hour, f.mr.TTL(key))
	assert.Equal(t, "alice", f.mr.HGet(key, "username"))
	assert.Equal(t, "10.0.0.1", f.mr.HGet(key, "ip"))

	u, err := f.sm.CurrentUser(ctx, sess.Token)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, f.alice.ID, u.ID)
}

func TestSessionManager_LoginReplacesPriorSession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	first, err := f.sm.Login(ctx, f.alice, "", SessionMeta{})
	require.NoError(t, err)
	second, err := f.sm.Login(ctx, f.alice, first.Token, SessionMeta{})
	require.NoError(t, err)

	assert.False(t, f.mr.Exists("session:"+first.ID))
	u, err := f.sm.CurrentUser(ctx, first.Token)
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = f.sm.CurrentUser(ctx, second.Token)
	require.NoError(t, err)
	assert.NotNil(t, u)
}

func TestSessionManager_Logout(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	sess, err := f.sm.Login(ctx, f.alice, "", SessionMeta{})
	require.NoError(t, err)
	require.NoError(t, f.sm.Logout(ctx, sess.Token))
	assert.False(t, f.mr.Exists("session:"+sess.ID))

	u, err := f.sm.CurrentUser(ctx, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, u)

	assert.NoError(t, f.sm.Logout(ctx, sess.Token))
	assert.NoError(t, f.sm.Logout(ctx, "not-a-token"))
}

func TestSessionManager_AnonymousCases(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	u, err := f.sm.CurrentUser(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = f.sm.CurrentUser(ctx, "garbage")
	require.NoError(t, err)
	assert.Nil(t, u)

	t.Run("username mismatch", func(t *testing.T) {
		sess, err := f.sm.Login(ctx, f.alice, "", SessionMeta{})
		require.NoError(t, err)
		f.mr.HSet("session:"+sess.ID, "username", "mallory")

		u, err := f.sm.CurrentUser(ctx, sess.Token)
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("expired in redis", func(t *testing.T) {
		sess, err := f.sm.Login(ctx, f.alice, "", SessionMeta{})
		require.NoError(t, err)
		f.mr.FastForward(2 * time.Hour)

		u, err := f.sm.CurrentUser(ctx, sess.Token)
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("account removed", func(t *testing.T) {
		sess, err := f.sm.Login(ctx, f.alice, "", SessionMeta{})
		require.NoError(t, err)
		f.users.Delete(ctx, "alice")

		u, err := f.sm.CurrentUser(ctx, sess.Token)
		require.NoError(t, err)
		assert.Nil(t, u)
		assert.False(t, f.mr.Exists("session:"+sess.ID))
	})
}

func TestSessionManager_RedisDown(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	sess, err := f.sm.Login(ctx, f.alice, "", SessionMeta{})
	require.NoError(t, err)
	f.mr.Close()

	u, err := f.sm.CurrentUser(ctx, sess.Token)
	assert.Error(t, err)
	assert.Nil(t, u)
}
