package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/utils"
	"gorm.io/gorm"
)

func pinSequence(pins ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		pin := pins[i%len(pins)]
		i++
		return pin, nil
	}
}

func TestCreatePartyIsIdempotent(t *testing.T) {
	env := newTestEnv(t, defaultBranch())
	session := env.startSession(t)

	party, err := env.parties.Create(ctx(), session)
	require.NoError(t, err)
	assert.Len(t, party.Pin, 4)
	assert.Equal(t, models.PartyActive, party.Status)
	require.NotNil(t, session.PartyID)
	assert.Equal(t, party.ID, *session.PartyID)

	again, err := env.parties.Create(ctx(), session)
	require.NoError(t, err)
	assert.Equal(t, party.ID, again.ID)
}

func TestJoinParty(t *testing.T) {
	env := newTestEnv(t, defaultBranch())
	host := env.startSession(t)
	guest := env.startSession(t)

	party, err := env.parties.Create(ctx(), host)
	require.NoError(t, err)

	joined, err := env.parties.Join(ctx(), guest, party.Pin)
	require.NoError(t, err)
	assert.Equal(t, party.ID, joined.ID)

	members, err := env.parties.Members(ctx(), party.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	other := "0000"
	if party.Pin == other {
		other = "1111"
	}
	_, err = env.parties.Join(ctx(), guest, other)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	_, err = env.parties.Join(ctx(), guest, "12a4")
	assert.True(t, utils.IsKind(err, utils.KindBadRequest))
}

func TestJoinLosesToConcurrentClose(t *testing.T) {
	env := newTestEnv(t, defaultBranch())
	host := env.startSession(t)
	guest := env.startSession(t)
	party, err := env.parties.Create(ctx(), host)
	require.NoError(t, err)

	// The party closes after Join has read it as active but before the guest
	// is attached.
	fired := false
	require.NoError(t, env.db.Callback().Update().Before("gorm:update").Register("test:close", func(tx *gorm.DB) {
		if fired || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "guest_sessions" {
			return
		}
		fired = true
		db := tx.Session(&gorm.Session{NewDB: true})
		db.Exec("UPDATE table_parties SET status = ?, active_key = NULL, closed_at = ? WHERE id = ?",
			models.PartyClosed, env.clock.Now(), party.ID)
		db.Exec("UPDATE guest_sessions SET party_id = NULL WHERE party_id = ?", party.ID)
	}))

	_, err = env.parties.Join(ctx(), guest, party.Pin)
	require.True(t, fired)
	assert.True(t, utils.IsKind(err, utils.KindNotFound), "got %v", err)
	assert.Nil(t, guest.PartyID)

	stored, err := env.sessions.Get(ctx(), guest.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PartyID)
}

func TestJoinPartyOfAnotherTable(t *testing.T) {
	env := newTestEnv(t, defaultBranch())
	host := env.startSession(t)
	party, err := env.parties.Create(ctx(), host)
	require.NoError(t, err)

	otherTable := models.Table{BranchID: env.branch.ID, TableNumber: "B2"}
	require.NoError(t, env.db.Create(&otherTable).Error)
	stranger, _, err := env.sessions.Start(ctx(), otherTable.ID, "en")
	require.NoError(t, err)

	_, err = env.parties.Join(ctx(), stranger, party.Pin)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestPinCollisionRetries(t *testing.T) {
	env := newTestEnv(t, defaultBranch())
	env.parties.NewPin = pinSequence("1234")

	first, err := env.parties.Create(ctx(), env.startSession(t))
	require.NoError(t, err)
	assert.Equal(t, "1234", first.Pin)

	env.parties.NewPin = pinSequence("1234", "1234", "5678")
	second, err := env.parties.Create(ctx(), env.startSession(t))
	require.NoError(t, err)
	assert.Equal(t, "5678", second.Pin)
}

func TestPinAllocationGivesUp(t *testing.T) {
	env := newTestEnv(t, defaultBranch())
	env.parties.NewPin = pinSequence("1234")
	env.parties.PinAttempts = 3

	_, err := env.parties.Create(ctx(), env.startSession(t))
	require.NoError(t, err)

	_, err = env.parties.Create(ctx(), env.startSession(t))
	assert.True(t, utils.IsKind(err, utils.KindConflict))
}

func TestDuplicateActiveKeyIsRejected(t *testing.T) {
	env := newTestEnv(t, defaultBranch())
	key := models.PartyActiveKey(env.table.ID, "4321")
	expires := env.clock.Now().Add(time.Hour)

	require.NoError(t, env.db.Create(&models.TableParty{TableID: env.table.ID, Pin: "4321", Status: models.PartyActive, ActiveKey: &key, ExpiresAt: expires}).Error)

	dup := key
	err := env.db.Create(&models.TableParty{TableID: env.table.ID, Pin: "4321", Status: models.PartyActive, ActiveKey: &dup, ExpiresAt: expires}).Error
	assert.Error(t, err)
}

func TestResolveActiveClearsExpiredParty(t *testing.T) {
	env := newTestEnv(t, defaultBranch())
	session := env.startSession(t)

	party, err := env.parties.Create(ctx(), session)
	require.NoError(t, err)

	env.clock.Advance(2*time.Hour + time.Second)

	resolved, err := env.parties.ResolveActive(ctx(), session)
	require.NoError(t, err)
	assert.Nil(t, resolved)
	assert.Nil(t, session.PartyID)

	stored, err := env.sessions.Get(ctx(), session.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PartyID)

	// The party row itself stays ACTIVE until swept.
	var row models.TableParty
	require.NoError(t, env.db.First(&row, party.ID).Error)
	assert.Equal(t, models.PartyActive, row.Status)
}

func TestClosePartyDetachesMembers(t *testing.T) {
	env := newTestEnv(t, defaultBranch())
	host := env.startSession(t)
	guest := env.startSession(t)

	party, err := env.parties.Create(ctx(), host)
	require.NoError(t, err)
	_, err = env.parties.Join(ctx(), guest, party.Pin)
	require.NoError(t, err)

	closed, err := env.parties.Close(ctx(), party.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PartyClosed, closed.Status)
	assert.NotNil(t, closed.ClosedAt)

	members, err := env.parties.Members(ctx(), party.ID)
	require.NoError(t, err)
	assert.Empty(t, members)

	again, err := env.parties.Close(ctx(), party.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PartyClosed, again.Status)

	_, err = env.parties.Close(ctx(), 999)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestCloseForSession(t *testing.T) {
	env := newTestEnv(t, defaultBranch())
	session := env.startSession(t)

	_, err := env.parties.CloseFor(ctx(), session)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	_, err = env.parties.Create(ctx(), session)
	require.NoError(t, err)
	closed, err := env.parties.CloseFor(ctx(), session)
	require.NoError(t, err)
	assert.Equal(t, models.PartyClosed, closed.Status)
	assert.Nil(t, session.PartyID)
}

func TestSweepFreesExpiredPins(t *testing.T) {
	env := newTestEnv(t, defaultBranch())
	env.parties.NewPin = pinSequence("1234")

	_, err := env.parties.Create(ctx(), env.startSession(t))
	require.NoError(t, err)

	env.clock.Advance(3 * time.Hour)
	// Sessions started now are still valid; the party is not.
	closed, err := env.parties.SweepExpired(ctx())
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	party, err := env.parties.Create(ctx(), env.startSession(t))
	require.NoError(t, err)
	assert.Equal(t, "1234", party.Pin)

	closed, err = env.parties.SweepExpired(ctx())
	require.NoError(t, err)
	assert.Zero(t, closed)
}

func TestCreateReusesPinOfLazilyExpiredParty(t *testing.T) {
	env := newTestEnv(t, defaultBranch())
	env.parties.NewPin = pinSequence("4242")

	_, err := env.parties.Create(ctx(), env.startSession(t))
	require.NoError(t, err)
	env.clock.Advance(2*time.Hour + time.Minute)

	party, err := env.parties.Create(ctx(), env.startSession(t))
	require.NoError(t, err)
	assert.Equal(t, "4242", party.Pin)
}

func TestPartyPinsDisabled(t *testing.T) {
	branch := defaultBranch()
	branch.PartyPinEnabled = false
	env := newTestEnv(t, branch)

	_, err := env.parties.Create(ctx(), env.startSession(t))
	assert.True(t, utils.IsKind(err, utils.KindBadRequest))
}
