package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/utils"
	"gorm.io/gorm"
)

var errPinTaken = errors.New("pin taken")

// PartyService coordinates table parties: guests at one table sharing a 4-digit PIN.
type PartyService struct {
	DB          *gorm.DB
	Policies    PolicyProvider
	TTL         time.Duration
	PinAttempts int
	Now         Clock

	// NewPin generates a candidate PIN. Overridable for tests.
	NewPin func() (string, error)
}

func NewPartyService(db *gorm.DB, policies PolicyProvider, ttl time.Duration, pinAttempts int) *PartyService {
	return &PartyService{
		DB:          db,
		Policies:    policies,
		TTL:         ttl,
		PinAttempts: pinAttempts,
		Now:         utcNow,
		NewPin:      randomPin,
	}
}

// Create returns the session's live party, or opens a new one with a PIN
// unique among active parties of the table.
func (s *PartyService) Create(ctx context.Context, session *models.GuestSession) (*models.TableParty, error) {
	if err := s.requirePins(ctx, session.TableID); err != nil {
		return nil, err
	}

	existing, err := s.ResolveActive(ctx, session)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if err := s.closeExpiredAt(ctx, session.TableID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < s.PinAttempts; attempt++ {
		pin, err := s.NewPin()
		if err != nil {
			return nil, err
		}

		party, err := s.tryCreate(ctx, session, pin)
		if errors.Is(err, errPinTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		utils.InfoLogger.Infof("Party %d created at table %d by session %s", party.ID, party.TableID, session.ID)
		return party, nil
	}

	utils.ErrorLogger.Errorf("No free party PIN at table %d after %d attempts", session.TableID, s.PinAttempts)
	return nil, utils.ErrConflict("could not allocate a party PIN, please try again")
}

func (s *PartyService) tryCreate(ctx context.Context, session *models.GuestSession, pin string) (*models.TableParty, error) {
	now := s.Now()
	key := models.PartyActiveKey(session.TableID, pin)
	party := &models.TableParty{
		TableID:   session.TableID,
		Pin:       pin,
		Status:    models.PartyActive,
		ActiveKey: &key,
		ExpiresAt: now.Add(s.TTL),
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.TableParty{}).
			Where("table_id = ? AND pin = ? AND status = ?", session.TableID, pin, models.PartyActive).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return errPinTaken
		}

		// The unique active_key index is the backstop for a concurrent insert.
		if err := tx.Create(party).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errPinTaken
			}
			return err
		}
		return tx.Model(&models.GuestSession{}).
			Where("id = ?", session.ID).
			Update("party_id", party.ID).Error
	})
	if err != nil {
		return nil, err
	}

	session.PartyID = &party.ID
	return party, nil
}

// Join attaches the session to the active, unexpired party of its table with pin.
func (s *PartyService) Join(ctx context.Context, session *models.GuestSession, pin string) (*models.TableParty, error) {
	if err := s.requirePins(ctx, session.TableID); err != nil {
		return nil, err
	}

	pin = strings.TrimSpace(pin)
	if !validPin(pin) {
		return nil, utils.ErrBadRequest("pin must be 4 digits")
	}

	var party models.TableParty
	err := s.DB.WithContext(ctx).
		Where("table_id = ? AND pin = ? AND status = ?", session.TableID, pin, models.PartyActive).
		First(&party).Error
	if err != nil {
		return nil, notFound(err, "no active party with this pin")
	}
	if !party.LiveFor(session.TableID, s.Now()) {
		return nil, utils.ErrNotFound("no active party with this pin")
	}

	// The party may be closed between the read above and this write, so the
	// attach only lands while the party is still active.
	res := s.DB.WithContext(ctx).Model(&models.GuestSession{}).
		Where("id = ? AND EXISTS (SELECT 1 FROM table_parties WHERE id = ? AND table_id = ? AND status = ? AND expires_at > ?)",
			session.ID, party.ID, session.TableID, models.PartyActive, s.Now()).
		Update("party_id", party.ID)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, utils.ErrNotFound("no active party with this pin")
	}
	session.PartyID = &party.ID

	utils.InfoLogger.Infof("Session %s joined party %d", session.ID, party.ID)
	return &party, nil
}

// Close closes the party and detaches every member session. Closing a closed
// party returns it unchanged.
func (s *PartyService) Close(ctx context.Context, partyID uint) (*models.TableParty, error) {
	party, _, err := s.close(ctx, partyID)
	return party, err
}

// CloseFor closes the live party of session, if any.
func (s *PartyService) CloseFor(ctx context.Context, session *models.GuestSession) (*models.TableParty, error) {
	party, err := s.ResolveActive(ctx, session)
	if err != nil {
		return nil, err
	}
	if party == nil {
		return nil, utils.ErrNotFound("session has no active party")
	}
	party, err = s.Close(ctx, party.ID)
	if err != nil {
		return nil, err
	}
	session.PartyID = nil
	return party, nil
}

func (s *PartyService) close(ctx context.Context, partyID uint) (*models.TableParty, bool, error) {
	var party models.TableParty
	closed := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&party, partyID).Error; err != nil {
			return notFound(err, "party %d not found", partyID)
		}
		if party.Status != models.PartyActive {
			return nil
		}

		now := s.Now()
		res := tx.Model(&models.TableParty{}).
			Where("id = ? AND status = ?", partyID, models.PartyActive).
			Updates(map[string]interface{}{
				"status":     models.PartyClosed,
				"closed_at":  now,
				"active_key": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tx.First(&party, partyID).Error
		}

		if err := tx.Model(&models.GuestSession{}).
			Where("party_id = ?", partyID).
			Update("party_id", nil).Error; err != nil {
			return err
		}

		party.Status = models.PartyClosed
		party.ClosedAt = &now
		party.ActiveKey = nil
		closed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if closed {
		utils.InfoLogger.Infof("Party %d at table %d closed", party.ID, party.TableID)
	}
	return &party, closed, nil
}

// ResolveActive returns the session's party if it is still live for the
// session's table. A stale reference is cleared and nil is returned.
func (s *PartyService) ResolveActive(ctx context.Context, session *models.GuestSession) (*models.TableParty, error) {
	if session.PartyID == nil {
		return nil, nil
	}

	var party models.TableParty
	err := s.DB.WithContext(ctx).First(&party, *session.PartyID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil && party.LiveFor(session.TableID, s.Now()) {
		return &party, nil
	}

	if err := s.DB.WithContext(ctx).Model(&models.GuestSession{}).
		Where("id = ? AND party_id = ?", session.ID, *session.PartyID).
		Update("party_id", nil).Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Infof("Cleared stale party %d from session %s", *session.PartyID, session.ID)
	session.PartyID = nil
	return nil, nil
}

// Members lists the sessions currently attached to partyID.
func (s *PartyService) Members(ctx context.Context, partyID uint) ([]models.GuestSession, error) {
	var members []models.GuestSession
	err := s.DB.WithContext(ctx).Where("party_id = ?", partyID).Order("created_at").Find(&members).Error
	return members, err
}

// SweepExpired closes every active party whose expiry has passed.
func (s *PartyService) SweepExpired(ctx context.Context) (int, error) {
	return s.sweep(ctx, s.DB.WithContext(ctx).Where("status = ?", models.PartyActive))
}

func (s *PartyService) closeExpiredAt(ctx context.Context, tableID uint) error {
	_, err := s.sweep(ctx, s.DB.WithContext(ctx).Where("table_id = ? AND status = ?", tableID, models.PartyActive))
	return err
}

func (s *PartyService) sweep(ctx context.Context, query *gorm.DB) (int, error) {
	var parties []models.TableParty
	if err := query.Find(&parties).Error; err != nil {
		return 0, err
	}

	now := s.Now()
	count := 0
	for _, p := range parties {
		if p.ExpiresAt.After(now) {
			continue
		}
		_, closed, err := s.close(ctx, p.ID)
		if err != nil {
			return count, err
		}
		if closed {
			count++
		}
	}
	return count, nil
}

func (s *PartyService) requirePins(ctx context.Context, tableID uint) error {
	if s.Policies == nil {
		return nil
	}
	policy, err := s.Policies.ForTable(ctx, tableID)
	if err != nil {
		return err
	}
	if !policy.PartyPinEnabled {
		return utils.ErrBadRequest("party pins are disabled for this branch")
	}
	return nil
}

func randomPin() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate pin: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

func validPin(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
