package services

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/notify"
	"github.com/yeremiapane/tableside/utils"
	"gorm.io/gorm"
)

const maxReasonLength = 255

// WaiterService records guest requests for table service.
type WaiterService struct {
	DB       *gorm.DB
	Sessions *SessionService
	Policies PolicyProvider
	Emitter  notify.Emitter
	Cooldown time.Duration
	Now      Clock
}

func NewWaiterService(db *gorm.DB, sessions *SessionService, policies PolicyProvider, emitter notify.Emitter, cooldown time.Duration) *WaiterService {
	return &WaiterService{DB: db, Sessions: sessions, Policies: policies, Emitter: emitter, Cooldown: cooldown, Now: utcNow}
}

func (s *WaiterService) Call(ctx context.Context, session *models.GuestSession, reason string) (*models.WaiterCall, error) {
	if session.ExpiredAt(s.Now()) {
		return nil, utils.ErrGone("session expired")
	}
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return nil, utils.ErrBadRequest("reason is longer than %d characters", maxReasonLength)
	}

	policy, err := s.Policies.ForTable(ctx, session.TableID)
	if err != nil {
		return nil, err
	}

	call := &models.WaiterCall{TableID: session.TableID, SessionID: session.ID, Reason: reason}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Sessions.Touch(tx, session, ActionWaiterCall, s.Cooldown); err != nil {
			return err
		}
		return tx.Create(call).Error
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Infof("Waiter called to table %d by session %s", session.TableID, session.ID)
	s.Emitter.Emit(policy.BranchID, notify.EventWaiterCalled, strconv.FormatUint(uint64(call.ID), 10))
	return call, nil
}
