package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/tableside/utils"
	"gorm.io/gorm"
)

func ctx() context.Context {
	return context.Background()
}

func TestSessionStartAndAuthenticate(t *testing.T) {
	env := newTestEnv(t, defaultBranch())

	session, secret, err := env.sessions.Start(ctx(), env.table.ID, "")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.NotEmpty(t, secret)
	assert.NotEqual(t, secret, session.SecretHash)
	assert.Equal(t, "en", session.Locale)
	assert.Equal(t, env.clock.Now().Add(12*time.Hour), session.ExpiresAt)

	got, err := env.sessions.Authenticate(ctx(), session.ID, secret)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)

	_, err = env.sessions.Authenticate(ctx(), session.ID, "wrong")
	assert.True(t, utils.IsKind(err, utils.KindForbidden))

	_, err = env.sessions.Authenticate(ctx(), session.ID, "")
	assert.True(t, utils.IsKind(err, utils.KindForbidden))

	_, err = env.sessions.Authenticate(ctx(), "missing", secret)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	env.clock.Advance(12 * time.Hour)
	_, err = env.sessions.Authenticate(ctx(), session.ID, secret)
	assert.True(t, utils.IsKind(err, utils.KindGone))
}

func TestSessionStartUnknownTable(t *testing.T) {
	env := newTestEnv(t, defaultBranch())

	_, _, err := env.sessions.Start(ctx(), 999, "en")
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestTouchCooldown(t *testing.T) {
	env := newTestEnv(t, defaultBranch())
	session := env.startSession(t)
	cooldown := 10 * time.Second

	require.NoError(t, env.sessions.Touch(env.db, session, ActionOrder, cooldown))

	env.clock.Advance(5 * time.Second)
	err := env.sessions.Touch(env.db, session, ActionOrder, cooldown)
	assert.True(t, utils.IsKind(err, utils.KindTooManyRequests))

	// Other actions keep their own timestamps.
	require.NoError(t, env.sessions.Touch(env.db, session, ActionWaiterCall, cooldown))

	env.clock.Advance(6 * time.Second)
	require.NoError(t, env.sessions.Touch(env.db, session, ActionOrder, cooldown))
}

func TestTouchRejectsStaleSnapshot(t *testing.T) {
	env := newTestEnv(t, defaultBranch())
	session := env.startSession(t)

	stale, err := env.sessions.Get(ctx(), session.ID)
	require.NoError(t, err)

	require.NoError(t, env.sessions.Touch(env.db, session, ActionOrder, 0))
	err = env.sessions.Touch(env.db, stale, ActionOrder, 0)
	assert.True(t, utils.IsKind(err, utils.KindTooManyRequests))
}

func TestTouchRolledBackDoesNotConsumeCooldown(t *testing.T) {
	env := newTestEnv(t, defaultBranch())
	session := env.startSession(t)
	boom := errors.New("boom")

	err := env.db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, env.sessions.Touch(tx, session, ActionOrder, time.Minute))
		return boom
	})
	require.ErrorIs(t, err, boom)

	reloaded, err := env.sessions.Get(ctx(), session.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.LastOrderAt)
	assert.NoError(t, env.sessions.Touch(env.db, reloaded, ActionOrder, time.Minute))
}
