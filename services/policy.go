package services

import (
	"context"

	"github.com/yeremiapane/tableside/models"
	"gorm.io/gorm"
)

// Policy is the guest-facing configuration of the branch a table belongs to.
type Policy struct {
	BranchID              uint
	RequireOTPBeforeOrder bool
	PartyPinEnabled       bool
	AllowPayForOthers     bool
	AllowPayWholeTable    bool
	TipsEnabled           bool
	TipPercents           []int
	PaymentMethods        []models.PaymentMethod
}

// AllowsPaymentMethod reports whether m is a known method enabled for the branch.
// A branch with no configured methods accepts every known method.
func (p *Policy) AllowsPaymentMethod(m models.PaymentMethod) bool {
	if m != models.PaymentCash && m != models.PaymentTerminal {
		return false
	}
	if len(p.PaymentMethods) == 0 {
		return true
	}
	for _, allowed := range p.PaymentMethods {
		if allowed == m {
			return true
		}
	}
	return false
}

// AllowsTip reports whether percent is acceptable. Zero is always accepted.
func (p *Policy) AllowsTip(percent int) bool {
	if percent == 0 {
		return true
	}
	if !p.TipsEnabled || percent < 0 {
		return false
	}
	for _, allowed := range p.TipPercents {
		if allowed == percent {
			return true
		}
	}
	return false
}

type PolicyProvider interface {
	ForTable(ctx context.Context, tableID uint) (*Policy, error)
}

// BranchPolicies reads policy from the branch row of the table.
type BranchPolicies struct {
	DB *gorm.DB
}

func (b *BranchPolicies) ForTable(ctx context.Context, tableID uint) (*Policy, error) {
	var table models.Table
	if err := b.DB.WithContext(ctx).Preload("Branch").First(&table, tableID).Error; err != nil {
		return nil, notFound(err, "table %d not found", tableID)
	}

	branch := table.Branch
	methods := make([]models.PaymentMethod, 0, len(branch.PaymentMethods))
	for _, m := range branch.PaymentMethods {
		methods = append(methods, models.PaymentMethod(m))
	}

	return &Policy{
		BranchID:              branch.ID,
		RequireOTPBeforeOrder: branch.RequireOTPBeforeOrder,
		PartyPinEnabled:       branch.PartyPinEnabled,
		AllowPayForOthers:     branch.AllowPayForOthers,
		AllowPayWholeTable:    branch.AllowPayWholeTable,
		TipsEnabled:           branch.TipsEnabled,
		TipPercents:           []int(branch.TipPercents),
		PaymentMethods:        methods,
	}, nil
}
