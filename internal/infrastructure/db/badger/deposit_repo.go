package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/KeelLabsHQ/keelbridge/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const depositDir = "deposit"

type depositRepository struct {
	store *badgerhold.Store
}

func NewDepositRepository(baseDir string, logger badger.Logger) (domain.DepositRepository, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, depositDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open deposit store: %s", err)
	}
	return &depositRepository{store}, nil
}

// Add inserts the deposit keyed by its identity. The key-exists failure is the
// atomic dedup check: an identity can be stored at most once, ever.
func (r *depositRepository) Add(ctx context.Context, deposit domain.Deposit) error {
	if err := r.store.Insert(deposit.ID, deposit); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateDeposit, deposit.ID)
		}
		return err
	}
	return nil
}

func (r *depositRepository) Get(ctx context.Context, id string) (*domain.Deposit, error) {
	var deposit domain.Deposit
	err := r.store.Get(id, &deposit)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, fmt.Errorf("%w: deposit %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit %s: %w", id, err)
	}
	return &deposit, nil
}

func (r *depositRepository) Contains(ctx context.Context, id string) (bool, error) {
	var deposit domain.Deposit
	err := r.store.Get(id, &deposit)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *depositRepository) GetAll(ctx context.Context) ([]domain.Deposit, error) {
	var deposits []domain.Deposit
	if err := r.store.Find(&deposits, nil); err != nil {
		return nil, fmt.Errorf("failed to get all deposits: %w", err)
	}
	sort.Slice(deposits, func(i, j int) bool {
		return deposits[i].CreatedAt < deposits[j].CreatedAt
	})
	return deposits, nil
}

func (r *depositRepository) Close() {
	// nolint:all
	r.store.Close()
}
