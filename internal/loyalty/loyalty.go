// Package loyalty implements point earning and reward redemption.
package loyalty

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/money"
)

var (
	ErrInsufficientPoints  = errors.New("insufficient loyalty points")
	ErrBelowMinimum        = errors.New("balance below minimum redemption")
	ErrRewardInactive      = errors.New("reward is not active")
	ErrRewardNotFound      = errors.New("reward not found")
	ErrInvalidDiscountType = errors.New("invalid reward discount type")
)

// DefaultProgram returns the standard earning rules and reward catalogue
func DefaultProgram(pointsPerDollar, minimumRedemption int64) models.LoyaltyProgram {
	return models.LoyaltyProgram{
		PointsPerDollar:         pointsPerDollar,
		MinimumPointsRedemption: minimumRedemption,
		Rewards: []models.LoyaltyReward{
			{ID: "rwd-10pct", Name: "10% off", PointsRequired: 500, DiscountType: models.DiscountPercentage, DiscountValue: decimal.NewFromInt(10), IsActive: true},
			{ID: "rwd-free-dish", Name: "Free dish", PointsRequired: 1000, DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(25), IsActive: true},
			{ID: "rwd-tasting", Name: "Tasting menu", PointsRequired: 2000, DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(75), IsActive: true},
			{ID: "rwd-vip", Name: "VIP event", PointsRequired: 5000, DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(200), IsActive: false},
		},
	}
}

// FindReward looks a reward up by id
func FindReward(program models.LoyaltyProgram, id string) (models.LoyaltyReward, error) {
	for _, r := range program.Rewards {
		if r.ID == id {
			return r, nil
		}
	}
	return models.LoyaltyReward{}, fmt.Errorf("%w: %s", ErrRewardNotFound, id)
}

// Earn returns the points an order total is worth, whole dollars times the rate rounded down
func Earn(total money.Cents, program models.LoyaltyProgram) int64 {
	if total <= 0 || program.PointsPerDollar <= 0 {
		return 0
	}
	return total.Decimal().Mul(decimal.NewFromInt(program.PointsPerDollar)).Floor().IntPart()
}

// Credit returns a copy of account with points added
func Credit(account models.LoyaltyAccount, points int64, at time.Time) models.LoyaltyAccount {
	next := account
	if points <= 0 {
		return next
	}
	next.PointsBalance += points
	next.TotalPointsEarned += points
	next.UpdatedAt = at
	return next
}

// Redemption is the outcome of exchanging points for a reward
type Redemption struct {
	Account     models.LoyaltyAccount `json:"account"`
	Reward      models.LoyaltyReward  `json:"reward"`
	PointsSpent int64                 `json:"points_spent"`
	Discount    money.Cents           `json:"discount"`
}

// Redeem spends points on reward against an order subtotal.
// Percentage rewards apply to the subtotal; fixed rewards are capped at it.
func Redeem(account models.LoyaltyAccount, reward models.LoyaltyReward, program models.LoyaltyProgram, subtotal money.Cents, at time.Time) (Redemption, error) {
	if !reward.IsActive {
		return Redemption{}, fmt.Errorf("%w: %s", ErrRewardInactive, reward.ID)
	}
	if account.PointsBalance < program.MinimumPointsRedemption {
		return Redemption{}, fmt.Errorf("%w: balance %d, minimum %d", ErrBelowMinimum, account.PointsBalance, program.MinimumPointsRedemption)
	}
	if account.PointsBalance < reward.PointsRequired {
		return Redemption{}, fmt.Errorf("%w: balance %d, required %d", ErrInsufficientPoints, account.PointsBalance, reward.PointsRequired)
	}

	var discount money.Cents

	switch reward.DiscountType {
	case models.DiscountPercentage:
		discount = subtotal.Percent(reward.DiscountValue)
	case models.DiscountFixed:
		discount = money.FromDecimal(reward.DiscountValue)
	default:
		return Redemption{}, fmt.Errorf("%w: %q", ErrInvalidDiscountType, reward.DiscountType)
	}

	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}

	next := account
	next.PointsBalance -= reward.PointsRequired
	next.TotalPointsRedeemed += reward.PointsRequired
	next.UpdatedAt = at

	return Redemption{
		Account:     next,
		Reward:      reward,
		PointsSpent: reward.PointsRequired,
		Discount:    discount,
	}, nil
}
