package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoyaltyAccount tracks a client's loyalty points
type LoyaltyAccount struct {
	ClientID            string    `db:"client_id" json:"client_id"`
	PointsBalance       int64     `db:"points_balance" json:"points_balance"`
	TotalPointsEarned   int64     `db:"total_points_earned" json:"total_points_earned"`
	TotalPointsRedeemed int64     `db:"total_points_redeemed" json:"total_points_redeemed"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// DiscountType selects how a reward is applied
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// LoyaltyReward is something points can be exchanged for
type LoyaltyReward struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	PointsRequired int64           `json:"points_required"`
	DiscountType   DiscountType    `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	IsActive       bool            `json:"is_active"`
}

// LoyaltyProgram holds the earning and redemption rules
type LoyaltyProgram struct {
	PointsPerDollar         int64           `json:"points_per_dollar"`
	MinimumPointsRedemption int64           `json:"minimum_points_redemption"`
	Rewards                 []LoyaltyReward `json:"rewards"`
}
