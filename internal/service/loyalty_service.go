package service

import (
	"context"
	"errors"

	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/repository"
)

// LoyaltyService exposes loyalty balances and the reward catalogue
type LoyaltyService struct {
	accounts LoyaltyStore
	program  models.LoyaltyProgram
}

// NewLoyaltyService creates a new LoyaltyService
func NewLoyaltyService(accounts LoyaltyStore, program models.LoyaltyProgram) *LoyaltyService {
	return &LoyaltyService{
		accounts: accounts,
		program:  program,
	}
}

// GetAccount returns the client's balance. Clients that never earned points get an empty account.
func (s *LoyaltyService) GetAccount(ctx context.Context, clientID string) (*models.LoyaltyAccount, error) {
	account, err := s.accounts.GetByClientID(ctx, clientID)

	if errors.Is(err, repository.ErrNotFound) {
		return &models.LoyaltyAccount{ClientID: clientID}, nil
	}

	return account, err
}

// Program returns the earning rules and rewards
func (s *LoyaltyService) Program() models.LoyaltyProgram {
	return s.program
}
