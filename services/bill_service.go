package services

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/notify"
	"github.com/yeremiapane/tableside/statemachine"
	"github.com/yeremiapane/tableside/utils"
	"gorm.io/gorm"
)

var errStaleBill = errors.New("bill request changed concurrently")

type CreateBillInput struct {
	Mode          models.BillMode      `json:"mode" binding:"required"`
	OrderItemIDs  []uint               `json:"order_item_ids"`
	PaymentMethod models.PaymentMethod `json:"payment_method" binding:"required"`
	TipPercent    *int                 `json:"tip_percent"`
}

// BillService settles order items through bill requests.
type BillService struct {
	DB       *gorm.DB
	Sessions *SessionService
	Parties  *PartyService
	Policies PolicyProvider
	Emitter  notify.Emitter
	Expiry   time.Duration
	Cooldown time.Duration
	Now      Clock
}

func NewBillService(db *gorm.DB, sessions *SessionService, parties *PartyService, policies PolicyProvider, emitter notify.Emitter, expiry, cooldown time.Duration) *BillService {
	return &BillService{
		DB:       db,
		Sessions: sessions,
		Parties:  parties,
		Policies: policies,
		Emitter:  emitter,
		Expiry:   expiry,
		Cooldown: cooldown,
		Now:      utcNow,
	}
}

// Create reserves the payable items chosen by in and records a bill request
// for them. Either every item is reserved or nothing is written.
func (s *BillService) Create(ctx context.Context, session *models.GuestSession, in CreateBillInput) (*models.BillRequest, error) {
	if session.ExpiredAt(s.Now()) {
		return nil, utils.ErrGone("session expired")
	}

	policy, err := s.Policies.ForTable(ctx, session.TableID)
	if err != nil {
		return nil, err
	}

	switch in.Mode {
	case models.BillModeMy, models.BillModeSelected:
	case models.BillModeWholeTable:
		if !policy.AllowPayWholeTable {
			return nil, utils.ErrBadRequest("paying for the whole table is not enabled")
		}
	default:
		return nil, utils.ErrBadRequest("unknown bill mode %q", in.Mode)
	}
	if in.Mode == models.BillModeSelected && len(in.OrderItemIDs) == 0 {
		return nil, utils.ErrBadRequest("select at least one item")
	}
	if !policy.AllowsPaymentMethod(in.PaymentMethod) {
		return nil, utils.ErrBadRequest("payment method %q is not available", in.PaymentMethod)
	}
	tip := 0
	if in.TipPercent != nil {
		tip = *in.TipPercent
	}
	if !policy.AllowsTip(tip) {
		return nil, utils.ErrBadRequest("tip of %d%% is not available", tip)
	}

	party, err := s.Parties.ResolveActive(ctx, session)
	if err != nil {
		return nil, err
	}
	if in.Mode == models.BillModeWholeTable && party == nil {
		return nil, utils.ErrBadRequest("paying for the whole table requires an active party")
	}

	payable, err := s.payableItems(ctx, session, party, in.Mode, policy)
	if err != nil {
		return nil, err
	}

	selected := payable
	if in.Mode == models.BillModeSelected {
		selected, err = pickItems(payable, in.OrderItemIDs)
		if err != nil {
			return nil, err
		}
	}
	if len(selected) == 0 {
		return nil, utils.ErrBadRequest("there is nothing to pay")
	}

	var subtotal int64
	for i := range selected {
		subtotal += selected[i].LineTotal()
	}
	tipAmount := int64(math.Round(float64(subtotal) * float64(tip) / 100))

	bill := &models.BillRequest{
		Reference:     uuid.NewString(),
		TableID:       session.TableID,
		SessionID:     session.ID,
		Mode:          in.Mode,
		PaymentMethod: in.PaymentMethod,
		Status:        models.BillCreated,
		Subtotal:      subtotal,
		TipPercent:    tip,
		TipAmount:     tipAmount,
		Total:         subtotal + tipAmount,
		CreatedAt:     s.Now(),
	}
	if party != nil {
		bill.PartyID = &party.ID
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Sessions.Touch(tx, session, ActionBillRequest, s.Cooldown); err != nil {
			return err
		}
		if err := tx.Create(bill).Error; err != nil {
			return err
		}
		for i := range selected {
			line := models.BillRequestItem{
				BillRequestID: bill.ID,
				OrderItemID:   selected[i].ID,
				LineTotal:     selected[i].LineTotal(),
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			if err := markReserved(tx, selected[i].ID, bill.ID); err != nil {
				return err
			}
			bill.Items = append(bill.Items, line)
		}
		return nil
	})
	if err != nil {
		if utils.IsKind(err, utils.KindConflict) {
			utils.InfoLogger.Warnf("Bill request by session %s lost a reservation race: %v", session.ID, err)
		}
		return nil, err
	}

	utils.InfoLogger.Infof("Bill request %d (%s) created by session %s: %d item(s), total %s",
		bill.ID, bill.Mode, session.ID, len(bill.Items), utils.FormatMinor(bill.Total))
	s.emit(policy.BranchID, notify.EventBillRequested, bill)
	return bill, nil
}

// payableItems returns the open, unreserved items the session may pay for in mode.
func (s *BillService) payableItems(ctx context.Context, session *models.GuestSession, party *models.TableParty, mode models.BillMode, policy *Policy) ([]models.OrderItem, error) {
	orders := s.DB.WithContext(ctx).Model(&models.Order{}).Select("id")
	crossGuest := mode == models.BillModeWholeTable || (mode == models.BillModeSelected && policy.AllowPayForOthers)
	if crossGuest && party != nil {
		members := s.DB.WithContext(ctx).Model(&models.GuestSession{}).Select("id").Where("party_id = ?", party.ID)
		orders = orders.Where("table_id = ? AND session_id IN (?)", session.TableID, members)
	} else {
		orders = orders.Where("session_id = ?", session.ID)
	}

	var items []models.OrderItem
	err := s.DB.WithContext(ctx).
		Where("order_id IN (?) AND is_closed = ? AND bill_request_id IS NULL", orders, false).
		Order("id").
		Find(&items).Error
	return items, err
}

func pickItems(payable []models.OrderItem, ids []uint) ([]models.OrderItem, error) {
	byID := make(map[uint]models.OrderItem, len(payable))
	for _, item := range payable {
		byID[item.ID] = item
	}

	seen := make(map[uint]bool, len(ids))
	picked := make([]models.OrderItem, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		item, ok := byID[id]
		if !ok {
			return nil, utils.ErrBadRequest("order item %d is not payable by this session", id)
		}
		picked = append(picked, item)
	}
	return picked, nil
}

// Get returns one of the session's bill requests, applying expiry first.
func (s *BillService) Get(ctx context.Context, session *models.GuestSession, billID uint) (*models.BillRequest, error) {
	bill, err := s.load(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.SessionID != session.ID {
		return nil, utils.ErrForbidden("bill request belongs to another session")
	}
	return s.expireIfDue(ctx, bill)
}

// Latest returns the session's most recent bill request.
func (s *BillService) Latest(ctx context.Context, session *models.GuestSession) (*models.BillRequest, error) {
	var bill models.BillRequest
	err := s.DB.WithContext(ctx).
		Preload("Items").
		Where("session_id = ?", session.ID).
		Order("created_at DESC, id DESC").
		First(&bill).Error
	if err != nil {
		return nil, notFound(err, "session has no bill requests")
	}
	return s.expireIfDue(ctx, &bill)
}

// Cancel releases the items of a CREATED bill request owned by session.
func (s *BillService) Cancel(ctx context.Context, session *models.GuestSession, billID uint) (*models.BillRequest, error) {
	bill, err := s.Get(ctx, session, billID)
	if err != nil {
		return nil, err
	}
	bill, err = s.transition(ctx, bill, models.BillCancelled, statemachine.ActorGuest, nil, func(tx *gorm.DB) error {
		_, err := markPayable(tx, bill.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.emitForTable(ctx, bill, notify.EventBillCancelled)
	return bill, nil
}

// ConfirmPaid records that staff collected payment and closes the reserved items.
func (s *BillService) ConfirmPaid(ctx context.Context, staff Staff, billID uint) (*models.BillRequest, error) {
	bill, err := s.load(ctx, billID)
	if err != nil {
		return nil, err
	}
	if err := s.requireBranch(ctx, staff, bill.TableID); err != nil {
		return nil, err
	}
	if bill, err = s.expireIfDue(ctx, bill); err != nil {
		return nil, err
	}

	now := s.Now()
	fields := map[string]interface{}{"confirmed_at": now, "confirmed_by": staff.UserID}
	bill, err = s.transition(ctx, bill, models.BillPaidConfirmed, statemachine.ActorStaff, fields, func(tx *gorm.DB) error {
		closed, err := markClosed(tx, bill.ID, now)
		if err != nil {
			return err
		}
		if closed != int64(len(bill.Items)) {
			return utils.ErrConflict("bill request %d no longer holds all of its items", bill.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Infof("Bill request %d confirmed paid by user %d, total %s", bill.ID, staff.UserID, utils.FormatMinor(bill.Total))
	s.Emitter.Emit(staff.BranchID, notify.EventBillPaidConfirmed, strconv.FormatUint(uint64(bill.ID), 10))
	return bill, nil
}

// Close marks a paid bill request as finished on the guest side.
func (s *BillService) Close(ctx context.Context, session *models.GuestSession, billID uint) (*models.BillRequest, error) {
	bill, err := s.Get(ctx, session, billID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, bill, models.BillClosed, statemachine.ActorGuest, nil, nil)
}

// ListForTable returns the table's bill requests that still await staff or guest action.
func (s *BillService) ListForTable(ctx context.Context, staff Staff, tableID uint) ([]models.BillRequest, error) {
	if err := s.requireBranch(ctx, staff, tableID); err != nil {
		return nil, err
	}

	var bills []models.BillRequest
	err := s.DB.WithContext(ctx).
		Preload("Items").
		Where("table_id = ? AND status IN ?", tableID, []models.BillStatus{models.BillCreated, models.BillPaidConfirmed}).
		Order("created_at, id").
		Find(&bills).Error
	if err != nil {
		return nil, err
	}

	open := make([]models.BillRequest, 0, len(bills))
	for i := range bills {
		bill, err := s.expireIfDue(ctx, &bills[i])
		if err != nil {
			return nil, err
		}
		if !statemachine.IsTerminal(bill.Status) {
			open = append(open, *bill)
		}
	}
	return open, nil
}

// SweepExpired expires every CREATED bill request past its window.
func (s *BillService) SweepExpired(ctx context.Context) (int, error) {
	var bills []models.BillRequest
	if err := s.DB.WithContext(ctx).Preload("Items").Where("status = ?", models.BillCreated).Find(&bills).Error; err != nil {
		return 0, err
	}

	count := 0
	for i := range bills {
		bill, err := s.expireIfDue(ctx, &bills[i])
		if err != nil {
			return count, err
		}
		if bill.Status == models.BillExpired {
			count++
		}
	}
	return count, nil
}

// expireIfDue moves a CREATED bill request older than its window to EXPIRED and
// releases its items. Any other bill is returned unchanged.
func (s *BillService) expireIfDue(ctx context.Context, bill *models.BillRequest) (*models.BillRequest, error) {
	if bill.Status != models.BillCreated || s.Now().Sub(bill.CreatedAt) <= s.Expiry {
		return bill, nil
	}

	expired, err := s.transition(ctx, bill, models.BillExpired, statemachine.ActorSystem, nil, func(tx *gorm.DB) error {
		_, err := markPayable(tx, bill.ID)
		return err
	})
	if errors.Is(err, errStaleBill) {
		return s.load(ctx, bill.ID)
	}
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Infof("Bill request %d expired", bill.ID)
	s.emitForTable(ctx, expired, notify.EventBillRequestExpired)
	return expired, nil
}

// transition moves bill to `to` if its status is still what was read. The
// status write and effect share one transaction.
func (s *BillService) transition(ctx context.Context, bill *models.BillRequest, to models.BillStatus, actor string, fields map[string]interface{}, effect func(tx *gorm.DB) error) (*models.BillRequest, error) {
	if statemachine.IsTerminal(bill.Status) {
		return nil, utils.ErrConflict("bill request %d is already %s", bill.ID, bill.Status)
	}
	if err := statemachine.CanTransition(bill.Status, to, actor); err != nil {
		return nil, utils.ErrConflict("bill request is %s: %v", bill.Status, err)
	}

	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}

	from := bill.Status
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.BillRequest{}).Where("id = ? AND status = ?", bill.ID, from).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errStaleBill
		}
		if effect != nil {
			return effect(tx)
		}
		return nil
	})
	if errors.Is(err, errStaleBill) {
		if actor == statemachine.ActorSystem {
			return nil, err
		}
		return nil, utils.ErrConflict("bill request %d was changed by another request", bill.ID)
	}
	if err != nil {
		return nil, err
	}

	return s.load(ctx, bill.ID)
}

func (s *BillService) load(ctx context.Context, billID uint) (*models.BillRequest, error) {
	var bill models.BillRequest
	if err := s.DB.WithContext(ctx).Preload("Items").First(&bill, billID).Error; err != nil {
		return nil, notFound(err, "bill request %d not found", billID)
	}
	return &bill, nil
}

func (s *BillService) requireBranch(ctx context.Context, staff Staff, tableID uint) error {
	var table models.Table
	if err := s.DB.WithContext(ctx).First(&table, tableID).Error; err != nil {
		return notFound(err, "table %d not found", tableID)
	}
	if table.BranchID != staff.BranchID {
		return utils.ErrForbidden("table %d belongs to another branch", tableID)
	}
	return nil
}

func (s *BillService) emitForTable(ctx context.Context, bill *models.BillRequest, event string) {
	var table models.Table
	if err := s.DB.WithContext(ctx).First(&table, bill.TableID).Error; err != nil {
		utils.ErrorLogger.Errorf("Failed to resolve branch of bill request %d for %s: %v", bill.ID, event, err)
		return
	}
	s.emit(table.BranchID, event, bill)
}

func (s *BillService) emit(branchID uint, event string, bill *models.BillRequest) {
	s.Emitter.Emit(branchID, event, strconv.FormatUint(uint64(bill.ID), 10))
}
