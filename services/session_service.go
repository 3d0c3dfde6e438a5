package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/utils"
	"gorm.io/gorm"
)

// Action names a rate-limited guest action tracked on the session row.
type Action string

const (
	ActionOrder       Action = "order"
	ActionWaiterCall  Action = "waiter_call"
	ActionBillRequest Action = "bill_request"
	ActionOTP         Action = "otp"
)

func (a Action) column() string {
	switch a {
	case ActionOrder:
		return "last_order_at"
	case ActionWaiterCall:
		return "last_waiter_call_at"
	case ActionBillRequest:
		return "last_bill_request_at"
	case ActionOTP:
		return "last_otp_at"
	}
	return ""
}

func (a Action) field(s *models.GuestSession) **time.Time {
	switch a {
	case ActionOrder:
		return &s.LastOrderAt
	case ActionWaiterCall:
		return &s.LastWaiterCallAt
	case ActionBillRequest:
		return &s.LastBillRequestAt
	case ActionOTP:
		return &s.LastOTPAt
	}
	return nil
}

const defaultLocale = "en"

// SessionService manages guest sessions opened by scanning a table code.
type SessionService struct {
	DB  *gorm.DB
	TTL time.Duration
	Now Clock
}

func NewSessionService(db *gorm.DB, ttl time.Duration) *SessionService {
	return &SessionService{DB: db, TTL: ttl, Now: utcNow}
}

// Start opens a session at tableID and returns it with the plain secret.
// The secret is only ever stored hashed.
func (s *SessionService) Start(ctx context.Context, tableID uint, locale string) (*models.GuestSession, string, error) {
	var table models.Table
	if err := s.DB.WithContext(ctx).First(&table, tableID).Error; err != nil {
		return nil, "", notFound(err, "table %d not found", tableID)
	}

	secret, err := newSecret()
	if err != nil {
		return nil, "", err
	}

	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = defaultLocale
	}

	session := &models.GuestSession{
		TableID:    table.ID,
		Locale:     locale,
		SecretHash: hashSecret(secret),
		ExpiresAt:  s.Now().Add(s.TTL),
	}
	if err := s.DB.WithContext(ctx).Create(session).Error; err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}

	utils.InfoLogger.Infof("Guest session %s started at table %d", session.ID, table.ID)
	return session, secret, nil
}

// Get loads a session by id without authenticating it.
func (s *SessionService) Get(ctx context.Context, id string) (*models.GuestSession, error) {
	var session models.GuestSession
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, notFound(err, "session not found")
	}
	return &session, nil
}

// Authenticate checks the secret in constant time and rejects expired sessions.
func (s *SessionService) Authenticate(ctx context.Context, id, secret string) (*models.GuestSession, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if secret == "" || session.SecretHash == "" {
		return nil, utils.ErrForbidden("invalid session secret")
	}
	if subtle.ConstantTimeCompare([]byte(hashSecret(secret)), []byte(session.SecretHash)) != 1 {
		return nil, utils.ErrForbidden("invalid session secret")
	}
	if session.ExpiredAt(s.Now()) {
		return nil, utils.ErrGone("session expired")
	}
	return session, nil
}

// Touch enforces the per-session cooldown for action and records now on success.
// db may be a transaction, so a rolled back action does not consume the cooldown.
func (s *SessionService) Touch(db *gorm.DB, session *models.GuestSession, action Action, cooldown time.Duration) error {
	now := s.Now()
	last := action.field(session)
	if last == nil {
		return fmt.Errorf("unknown action %q", action)
	}
	if *last != nil && now.Sub(**last) < cooldown {
		wait := cooldown - now.Sub(**last)
		return utils.ErrTooManyRequests("please wait %d seconds before the next %s", int(wait.Seconds())+1, action)
	}

	// Compare-and-set on the previous timestamp so concurrent requests of the
	// same session cannot both pass.
	col := action.column()
	q := db.Model(&models.GuestSession{}).Where("id = ?", session.ID)
	if *last == nil {
		q = q.Where(col + " IS NULL")
	} else {
		q = q.Where(col+" = ?", **last)
	}
	res := q.Update(col, now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrTooManyRequests("please wait before the next %s", action)
	}
	*last = &now
	return nil
}

func newSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
