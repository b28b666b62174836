package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/KeelLabsHQ/keelbridge/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const withdrawalDir = "withdrawal"

type withdrawalRepository struct {
	store *badgerhold.Store

	mu     sync.Mutex
	nextID uint64
}

func NewWithdrawalRepository(baseDir string, logger badger.Logger) (domain.WithdrawalRepository, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, withdrawalDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open withdrawal store: %s", err)
	}

	repo := &withdrawalRepository{store: store, nextID: 1}

	// Resume the id sequence from the highest stored record.
	var all []domain.Withdrawal
	if err := store.Find(&all, nil); err != nil {
		store.Close() // nolint:all
		return nil, fmt.Errorf("failed to scan withdrawal store: %s", err)
	}
	for _, w := range all {
		if w.ID >= repo.nextID {
			repo.nextID = w.ID + 1
		}
	}
	return repo, nil
}

// Add stores a new withdrawal under a fresh monotonically increasing id,
// starting at 1. Ids are never reused and records are never deleted.
func (r *withdrawalRepository) Add(ctx context.Context, withdrawal domain.Withdrawal) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	withdrawal.ID = r.nextID
	if err := r.store.Insert(withdrawal.ID, withdrawal); err != nil {
		return 0, fmt.Errorf("failed to store withdrawal: %w", err)
	}
	r.nextID++
	return withdrawal.ID, nil
}

func (r *withdrawalRepository) Get(ctx context.Context, id uint64) (*domain.Withdrawal, error) {
	var withdrawal domain.Withdrawal
	err := r.store.Get(id, &withdrawal)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, fmt.Errorf("%w: withdrawal %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal %d: %w", id, err)
	}
	return &withdrawal, nil
}

func (r *withdrawalRepository) Update(ctx context.Context, withdrawal domain.Withdrawal) error {
	err := r.store.Update(withdrawal.ID, withdrawal)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("%w: withdrawal %d", domain.ErrNotFound, withdrawal.ID)
	}
	return err
}

func (r *withdrawalRepository) GetAll(ctx context.Context) ([]domain.Withdrawal, error) {
	var withdrawals []domain.Withdrawal
	if err := r.store.Find(&withdrawals, nil); err != nil {
		return nil, fmt.Errorf("failed to get all withdrawals: %w", err)
	}
	sort.Slice(withdrawals, func(i, j int) bool {
		return withdrawals[i].ID < withdrawals[j].ID
	})
	return withdrawals, nil
}

func (r *withdrawalRepository) Close() {
	// nolint:all
	r.store.Close()
}
