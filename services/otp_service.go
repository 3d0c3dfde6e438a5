package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var phonePattern = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// OTPService verifies a guest's phone number with a short-lived code.
type OTPService struct {
	DB          *gorm.DB
	Sessions    *SessionService
	Sender      OTPSender
	TTL         time.Duration
	MaxAttempts int
	Cooldown    time.Duration
	Now         Clock

	// NewCode generates a 6 digit code. Overridable for tests.
	NewCode func() (string, error)
}

func NewOTPService(db *gorm.DB, sessions *SessionService, sender OTPSender, ttl time.Duration, maxAttempts int, cooldown time.Duration) *OTPService {
	return &OTPService{
		DB:          db,
		Sessions:    sessions,
		Sender:      sender,
		TTL:         ttl,
		MaxAttempts: maxAttempts,
		Cooldown:    cooldown,
		Now:         utcNow,
		NewCode:     randomCode,
	}
}

// Request issues a new code for phone and sends it.
func (s *OTPService) Request(ctx context.Context, session *models.GuestSession, phone string) error {
	phone = strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	if !phonePattern.MatchString(phone) {
		return utils.ErrBadRequest("phone must be in international format, e.g. +14155550123")
	}
	if session.Verified {
		return utils.ErrConflict("session is already verified")
	}

	code, err := s.NewCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	challenge := &models.PhoneVerification{
		SessionID: session.ID,
		Phone:     phone,
		CodeHash:  string(hash),
		ExpiresAt: s.Now().Add(s.TTL),
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Sessions.Touch(tx, session, ActionOTP, s.Cooldown); err != nil {
			return err
		}
		return tx.Create(challenge).Error
	})
	if err != nil {
		return err
	}

	return s.Sender.SendOTP(ctx, phone, code)
}

// Verify checks code against the session's latest challenge and marks the
// session verified. Verifying a verified session is a no-op.
func (s *OTPService) Verify(ctx context.Context, session *models.GuestSession, code string) (*models.GuestSession, error) {
	if session.Verified {
		return session, nil
	}

	var challenge models.PhoneVerification
	err := s.DB.WithContext(ctx).
		Where("session_id = ? AND verified_at IS NULL", session.ID).
		Order("created_at DESC, id DESC").
		First(&challenge).Error
	if err != nil {
		return nil, notFound(err, "no pending verification for this session")
	}

	now := s.Now()
	if !challenge.ExpiresAt.After(now) {
		return nil, utils.ErrBadRequest("verification code expired")
	}
	if challenge.Attempts >= s.MaxAttempts {
		return nil, utils.ErrTooManyRequests("too many attempts, request a new code")
	}

	res := s.DB.WithContext(ctx).Model(&models.PhoneVerification{}).
		Where("id = ? AND attempts = ?", challenge.ID, challenge.Attempts).
		Update("attempts", gorm.Expr("attempts + 1"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, utils.ErrConflict("verification attempt already in progress")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(challenge.CodeHash), []byte(strings.TrimSpace(code))); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, utils.ErrBadRequest("invalid verification code")
		}
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PhoneVerification{}).
			Where("id = ?", challenge.ID).
			Update("verified_at", now).Error; err != nil {
			return err
		}
		return tx.Model(&models.GuestSession{}).
			Where("id = ?", session.ID).
			Updates(map[string]interface{}{"verified": true, "verified_phone": challenge.Phone}).Error
	})
	if err != nil {
		return nil, err
	}

	session.Verified = true
	session.VerifiedPhone = &challenge.Phone
	utils.InfoLogger.Infof("Session %s verified its phone", session.ID)
	return session, nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
