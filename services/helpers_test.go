package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/tableside/database"
	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/utils"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type emitted struct {
	BranchID uint
	Event    string
	RefID    string
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (r *recordingEmitter) Emit(branchID uint, eventType string, refID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{branchID, eventType, refID})
}

func (r *recordingEmitter) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Event
	}
	return out
}

type testEnv struct {
	db      *gorm.DB
	clock   *fakeClock
	emitter *recordingEmitter

	branch models.Branch
	table  models.Table
	menu   models.Menu

	sessions *SessionService
	parties  *PartyService
	orders   *OrderService
	bills    *BillService
	waiter   *WaiterService
}

func defaultBranch() models.Branch {
	return models.Branch{
		Name:               "Central",
		PartyPinEnabled:    true,
		AllowPayForOthers:  true,
		AllowPayWholeTable: true,
		TipsEnabled:        true,
		TipPercents:        datatypes.JSONSlice[int]{5, 10, 15},
		PaymentMethods:     datatypes.JSONSlice[string]{"CASH", "TERMINAL"},
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestEnv(t *testing.T, branch models.Branch) *testEnv {
	t.Helper()
	utils.InitLogger()

	db := setupTestDB(t)
	require.NoError(t, db.Create(&branch).Error)

	table := models.Table{BranchID: branch.ID, TableNumber: "A1"}
	require.NoError(t, db.Create(&table).Error)

	menu := models.Menu{
		BranchID:         branch.ID,
		Name:             "Ramen",
		NameTranslations: datatypes.JSONMap{"id": "Ramen Kuah"},
		Price:            9900,
		Available:        true,
		ModifierGroups: []models.ModifierGroup{
			{
				Name: "Size", Required: true, MinSelect: 1, MaxSelect: 1,
				Options: []models.ModifierOption{{Name: "Regular", Price: 0}, {Name: "Large", Price: 1500}},
			},
			{
				Name: "Toppings", MaxSelect: 2,
				Options: []models.ModifierOption{{Name: "Egg", Price: 500}, {Name: "Nori", Price: 300}, {Name: "Chashu", Price: 2500}},
			},
		},
	}
	require.NoError(t, db.Create(&menu).Error)

	clock := newFakeClock()
	emitter := &recordingEmitter{}
	policies := &BranchPolicies{DB: db}

	sessions := NewSessionService(db, 12*time.Hour)
	sessions.Now = clock.Now

	parties := NewPartyService(db, policies, 2*time.Hour, 20)
	parties.Now = clock.Now

	orders := NewOrderService(db, sessions, parties, policies, &MenuCatalog{DB: db}, emitter, 10*time.Second)
	orders.Now = clock.Now

	bills := NewBillService(db, sessions, parties, policies, emitter, 15*time.Minute, 10*time.Second)
	bills.Now = clock.Now

	waiter := NewWaiterService(db, sessions, policies, emitter, 30*time.Second)
	waiter.Now = clock.Now

	return &testEnv{
		db: db, clock: clock, emitter: emitter,
		branch: branch, table: table, menu: menu,
		sessions: sessions, parties: parties, orders: orders, bills: bills, waiter: waiter,
	}
}

func (e *testEnv) startSession(t *testing.T) *models.GuestSession {
	t.Helper()
	session, _, err := e.sessions.Start(ctx(), e.table.ID, "en")
	require.NoError(t, err)
	return session
}

// ramen returns one regular ramen without toppings, priced 9900.
func (e *testEnv) ramen(quantity int) OrderItemInput {
	size := e.menu.ModifierGroups[0]
	return OrderItemInput{
		MenuItemID: e.menu.ID,
		Quantity:   quantity,
		Modifiers:  []ModifierSelection{{GroupID: size.ID, OptionIDs: []uint{size.Options[0].ID}}},
	}
}

func (e *testEnv) placeRamen(t *testing.T, session *models.GuestSession) *models.Order {
	t.Helper()
	order, err := e.orders.PlaceOrder(ctx(), session, []OrderItemInput{e.ramen(1)})
	require.NoError(t, err)
	e.clock.Advance(11 * time.Second)
	return order
}

func (e *testEnv) reloadItem(t *testing.T, id uint) models.OrderItem {
	t.Helper()
	var item models.OrderItem
	require.NoError(t, e.db.First(&item, id).Error)
	return item
}
