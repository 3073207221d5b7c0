package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/filesmanager/internal/model"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.user.Register(ctx, " Alice@Example.com ", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "pw1", user.PasswordHash)
	assert.Equal(t, []any{model.WelcomeJob{UserID: user.ID}}, env.welcome.Jobs())

	_, err = env.user.Register(ctx, "alice@example.com", "other")
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	_, err = env.user.Register(ctx, "", "pw1")
	assert.ErrorIs(t, err, ErrMissingEmail)
	_, err = env.user.Register(ctx, "bob@example.com", "")
	assert.ErrorIs(t, err, ErrMissingPassword)
	_, err = env.user.Register(ctx, "bob@example.com", strings.Repeat("x", 73))
	assert.Error(t, err)

	assert.Len(t, env.welcome.Jobs(), 1)
}

func TestRegisterSurvivesQueueOutage(t *testing.T) {
	env := newTestEnv(t)
	env.welcome.err = errors.New("redis down")

	user, err := env.user.Register(context.Background(), "alice@example.com", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
}

func TestConnectAndDisconnect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uid := env.register(t, "alice@example.com")

	token, err := env.auth.Connect(ctx, "alice@example.com", "pw1")
	require.NoError(t, err)
	assert.True(t, env.redis.Exists("auth_"+token))
	assert.Equal(t, 24*time.Hour, env.redis.TTL("auth_"+token))

	user, err := env.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, uid, user.ID)

	require.NoError(t, env.auth.Disconnect(ctx, token))
	_, err = env.auth.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// A revoked token cannot disconnect again
	assert.ErrorIs(t, env.auth.Disconnect(ctx, token), ErrUnauthorized)
}

func TestConnectRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice@example.com")

	_, err := env.auth.Connect(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.auth.Connect(ctx, "nobody@example.com", "pw1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.auth.Authenticate(ctx, "unknown")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Session pointing at a user that no longer exists
	token, err := env.sessions.Create(ctx, "ghost")
	require.NoError(t, err)
	_, err = env.auth.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	env.register(t, "alice@example.com")
	token, err = env.auth.Connect(ctx, "alice@example.com", "pw1")
	require.NoError(t, err)
	env.redis.FastForward(24*time.Hour + time.Second)
	_, err = env.auth.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSendWelcome(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uid := env.register(t, "alice@example.com")

	assert.NoError(t, env.user.SendWelcome(ctx, uid))
	assert.Error(t, env.user.SendWelcome(ctx, ""))
	assert.ErrorIs(t, env.user.SendWelcome(ctx, "missing"), ErrNotFound)
}

func TestStatusAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	assert.Equal(t, Status{Redis: true, DB: true}, env.app.Status(ctx))

	stats, err := env.app.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)

	uid := env.register(t, "alice@example.com")
	_, err = env.file.CreateNode(ctx, uid, CreateNodeInput{Name: "docs", Type: "folder"})
	require.NoError(t, err)

	stats, err = env.app.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Users: 1, Files: 1}, stats)

	env.redis.Close()
	assert.Equal(t, Status{Redis: false, DB: true}, env.app.Status(ctx))
}
