package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RewardSettingCommission is the reward setting category used by both
// calculators. Settings are administered externally; this service only reads
// them.
const RewardSettingCommission = "commission"

// RewardSetting holds the active percentage rates (0-100) for each reward
// category.
type RewardSetting struct {
	Category          string          `json:"category"`
	SelfRate          decimal.Decimal `json:"self_rate"`
	Ref1Rate          decimal.Decimal `json:"ref1_rate"`
	Ref2Rate          decimal.Decimal `json:"ref2_rate"`
	CenterRate        decimal.Decimal `json:"center_rate"`
	MasterCenterRate  decimal.Decimal `json:"master_center_rate"`
	GrandCenterRate   decimal.Decimal `json:"grand_center_rate"`
	TuitionCenterRate decimal.Decimal `json:"tuition_center_rate"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

var percent = decimal.NewFromInt(100)

// ApplyRate returns base × rate / 100 rounded to the ledger precision.
func ApplyRate(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(percent).Round(AmountPrecision)
}
