package inmemory

import (
	"context"
	"fmt"
	"sync"
)

// Service is an in-process asset ledger with satoshi (8 decimal) precision.
// The bridge core treats the asset ledger as an external system; this
// implementation is the development and test default.
type Service struct {
	mu       sync.Mutex
	balances map[string]uint64
	supply   uint64
}

func NewService() *Service {
	return &Service{balances: make(map[string]uint64)}
}

func (s *Service) Issue(ctx context.Context, account string, amount uint64) error {
	if account == "" {
		return fmt.Errorf("missing account")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[account] += amount
	s.supply += amount
	return nil
}

func (s *Service) Destroy(ctx context.Context, account string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[account] < amount {
		return fmt.Errorf("account %s holds %d, cannot destroy %d", account, s.balances[account], amount)
	}
	s.balances[account] -= amount
	s.supply -= amount
	return nil
}

func (s *Service) Move(ctx context.Context, from, to string, amount uint64) error {
	if to == "" {
		return fmt.Errorf("missing destination account")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[from] < amount {
		return fmt.Errorf("account %s holds %d, cannot move %d", from, s.balances[from], amount)
	}
	s.balances[from] -= amount
	s.balances[to] += amount
	return nil
}

func (s *Service) UnitPrecision(ctx context.Context) (uint32, error) {
	return 8, nil
}

// Balance returns the current balance of an account.
func (s *Service) Balance(account string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[account]
}

// TotalSupply returns the total issued and not yet destroyed amount.
func (s *Service) TotalSupply() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.supply
}
