package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/tableside/utils"
)

func TestLedgerTransitions(t *testing.T) {
	env := newTestEnv(t, defaultBranch())
	session := env.startSession(t)
	order := env.placeRamen(t, session)
	itemID := order.OrderItems[0].ID

	require.NoError(t, markReserved(env.db, itemID, 1))
	err := markReserved(env.db, itemID, 2)
	assert.True(t, utils.IsKind(err, utils.KindConflict))

	released, err := markPayable(env.db, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)
	assert.True(t, env.reloadItem(t, itemID).Payable())

	require.NoError(t, markReserved(env.db, itemID, 2))
	closed, err := markClosed(env.db, 2, env.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), closed)

	// Closed items are never released or reserved again.
	released, err = markPayable(env.db, 2)
	require.NoError(t, err)
	assert.Zero(t, released)
	assert.True(t, utils.IsKind(markReserved(env.db, itemID, 3), utils.KindConflict))
}
