package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/notify"
	"github.com/yeremiapane/tableside/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxCommentLength = 500

type ModifierSelection struct {
	GroupID   uint   `json:"group_id" binding:"required"`
	OptionIDs []uint `json:"option_ids"`
}

type OrderItemInput struct {
	MenuItemID uint                `json:"menu_item_id" binding:"required"`
	Quantity   int                 `json:"quantity"`
	Comment    string              `json:"comment"`
	Modifiers  []ModifierSelection `json:"modifiers"`
}

// selectedModifier is the snapshot stored on an order item.
type selectedModifier struct {
	GroupID   uint             `json:"group_id"`
	GroupName string           `json:"group_name"`
	Options   []selectedOption `json:"options"`
}

type selectedOption struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// OrderService places guest orders onto the ledger.
type OrderService struct {
	DB       *gorm.DB
	Sessions *SessionService
	Parties  *PartyService
	Policies PolicyProvider
	Menu     MenuResolver
	Emitter  notify.Emitter
	Cooldown time.Duration
	Now      Clock
}

func NewOrderService(db *gorm.DB, sessions *SessionService, parties *PartyService, policies PolicyProvider, menu MenuResolver, emitter notify.Emitter, cooldown time.Duration) *OrderService {
	return &OrderService{
		DB:       db,
		Sessions: sessions,
		Parties:  parties,
		Policies: policies,
		Menu:     menu,
		Emitter:  emitter,
		Cooldown: cooldown,
		Now:      utcNow,
	}
}

// PlaceOrder validates every item against the menu, then persists the order
// and its items atomically.
func (s *OrderService) PlaceOrder(ctx context.Context, session *models.GuestSession, inputs []OrderItemInput) (*models.Order, error) {
	if session.ExpiredAt(s.Now()) {
		return nil, utils.ErrGone("session expired")
	}
	if len(inputs) == 0 {
		return nil, utils.ErrBadRequest("order must contain at least one item")
	}

	policy, err := s.Policies.ForTable(ctx, session.TableID)
	if err != nil {
		return nil, err
	}
	if policy.RequireOTPBeforeOrder && !session.Verified {
		return nil, utils.ErrForbidden("phone verification is required before ordering")
	}

	items := make([]models.OrderItem, 0, len(inputs))
	var total int64
	for i, in := range inputs {
		item, err := s.buildItem(ctx, policy.BranchID, session.Locale, in)
		if err != nil {
			var appErr *utils.AppError
			if errors.As(err, &appErr) {
				return nil, &utils.AppError{Kind: appErr.Kind, Message: fmt.Sprintf("item %d: %s", i+1, appErr.Message)}
			}
			return nil, err
		}
		total += item.LineTotal()
		items = append(items, *item)
	}

	party, err := s.Parties.ResolveActive(ctx, session)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		SessionID:  session.ID,
		TableID:    session.TableID,
		ItemsTotal: total,
		OrderItems: items,
	}
	if party != nil {
		order.PartyID = &party.ID
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Sessions.Touch(tx, session, ActionOrder, s.Cooldown); err != nil {
			return err
		}
		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Infof("Order %d placed by session %s at table %d, total %s",
		order.ID, session.ID, session.TableID, utils.FormatMinor(order.ItemsTotal))
	s.Emitter.Emit(policy.BranchID, notify.EventOrderCreated, strconv.FormatUint(uint64(order.ID), 10))
	return order, nil
}

func (s *OrderService) buildItem(ctx context.Context, branchID uint, locale string, in OrderItemInput) (*models.OrderItem, error) {
	if in.Quantity < 1 {
		return nil, utils.ErrBadRequest("quantity must be at least 1")
	}
	comment := strings.TrimSpace(in.Comment)
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, utils.ErrBadRequest("comment is longer than %d characters", maxCommentLength)
	}

	menu, err := s.Menu.Resolve(ctx, in.MenuItemID)
	if err != nil {
		return nil, err
	}
	if menu.BranchID != branchID {
		return nil, utils.ErrNotFound("menu item %d not found", in.MenuItemID)
	}
	if !menu.Available {
		return nil, utils.ErrBadRequest("menu item %d is not available", in.MenuItemID)
	}

	modTotal, snapshot, err := priceModifiers(menu, in.Modifiers)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}

	return &models.OrderItem{
		MenuID:         menu.ID,
		Name:           menu.LocalizedName(locale),
		BasePrice:      menu.Price,
		ModifiersTotal: modTotal,
		UnitPrice:      menu.Price + modTotal,
		Quantity:       in.Quantity,
		Comment:        comment,
		Modifiers:      datatypes.JSON(raw),
	}, nil
}

// priceModifiers validates selections against the menu's groups and returns
// the per-unit modifier total with a snapshot of what was chosen.
func priceModifiers(menu *models.Menu, selections []ModifierSelection) (int64, []selectedModifier, error) {
	groups := make(map[uint]*models.ModifierGroup, len(menu.ModifierGroups))
	for i := range menu.ModifierGroups {
		groups[menu.ModifierGroups[i].ID] = &menu.ModifierGroups[i]
	}

	chosen := make(map[uint][]selectedOption, len(selections))
	for _, sel := range selections {
		group, ok := groups[sel.GroupID]
		if !ok {
			return 0, nil, utils.ErrBadRequest("modifier group %d does not belong to this item", sel.GroupID)
		}
		if _, dup := chosen[sel.GroupID]; dup {
			return 0, nil, utils.ErrBadRequest("modifier group %d selected twice", sel.GroupID)
		}

		options := make(map[uint]models.ModifierOption, len(group.Options))
		for _, o := range group.Options {
			options[o.ID] = o
		}
		seen := make(map[uint]bool, len(sel.OptionIDs))
		picked := make([]selectedOption, 0, len(sel.OptionIDs))
		for _, id := range sel.OptionIDs {
			opt, ok := options[id]
			if !ok {
				return 0, nil, utils.ErrBadRequest("option %d does not belong to group %q", id, group.Name)
			}
			if seen[id] {
				return 0, nil, utils.ErrBadRequest("option %d selected twice", id)
			}
			seen[id] = true
			picked = append(picked, selectedOption{ID: opt.ID, Name: opt.Name, Price: opt.Price})
		}
		chosen[sel.GroupID] = picked
	}

	var total int64
	snapshot := make([]selectedModifier, 0, len(chosen))
	for _, group := range menu.ModifierGroups {
		picked := chosen[group.ID]
		min, max := selectionBounds(&group)
		if len(picked) < min {
			return 0, nil, utils.ErrBadRequest("group %q needs at least %d selection(s)", group.Name, min)
		}
		if max > 0 && len(picked) > max {
			return 0, nil, utils.ErrBadRequest("group %q allows at most %d selection(s)", group.Name, max)
		}
		if len(picked) == 0 {
			continue
		}
		for _, o := range picked {
			total += o.Price
		}
		snapshot = append(snapshot, selectedModifier{GroupID: group.ID, GroupName: group.Name, Options: picked})
	}
	return total, snapshot, nil
}

// selectionBounds returns the effective selection bounds of a group.
// An optional group has no minimum; a required one needs at least one.
// A max of zero means unbounded.
func selectionBounds(g *models.ModifierGroup) (int, int) {
	min := 0
	if g.Required {
		min = g.MinSelect
		if min < 1 {
			min = 1
		}
	}
	return min, g.MaxSelect
}

// ListForSession returns the session's orders, newest first.
func (s *OrderService) ListForSession(ctx context.Context, sessionID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).
		Preload("OrderItems").
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

// ListForTable returns the table's orders that still have open items.
func (s *OrderService) ListForTable(ctx context.Context, tableID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).
		Preload("OrderItems").
		Where("table_id = ?", tableID).
		Where("EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id AND oi.is_closed = ?)", false).
		Order("created_at, id").
		Find(&orders).Error
	return orders, err
}

// Get returns one of the session's own orders.
func (s *OrderService) Get(ctx context.Context, session *models.GuestSession, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).Preload("OrderItems").First(&order, orderID).Error; err != nil {
		return nil, notFound(err, "order %d not found", orderID)
	}
	if order.SessionID != session.ID {
		return nil, utils.ErrForbidden("order belongs to another session")
	}
	return &order, nil
}
