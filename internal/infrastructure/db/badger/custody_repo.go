package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/KeelLabsHQ/keelbridge/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const (
	custodyKey = "custody"
	custodyDir = "custody"
)

type custodyList struct {
	Addresses []string
}

type custodyRepository struct {
	store *badgerhold.Store
}

func NewCustodyAddressRepository(baseDir string, logger badger.Logger) (domain.CustodyAddressRepository, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, custodyDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open custody store: %s", err)
	}
	return &custodyRepository{store}, nil
}

func (r *custodyRepository) Add(ctx context.Context, address string) error {
	list, err := r.getList()
	if err != nil {
		return err
	}
	list.Addresses = append(list.Addresses, address)
	return r.store.Upsert(custodyKey, *list)
}

// Remove swaps the target with the last entry and shrinks the list by one, so
// indices of unrelated entries may change across removals.
func (r *custodyRepository) Remove(ctx context.Context, index int) (string, error) {
	list, err := r.getList()
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(list.Addresses) {
		return "", fmt.Errorf("%w: index %d, count %d", domain.ErrIndexOutOfBounds, index, len(list.Addresses))
	}
	removed := list.Addresses[index]
	last := len(list.Addresses) - 1
	list.Addresses[index] = list.Addresses[last]
	list.Addresses = list.Addresses[:last]
	if err := r.store.Upsert(custodyKey, *list); err != nil {
		return "", err
	}
	return removed, nil
}

func (r *custodyRepository) List(ctx context.Context) ([]string, error) {
	list, err := r.getList()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(list.Addresses))
	copy(out, list.Addresses)
	return out, nil
}

func (r *custodyRepository) Count(ctx context.Context) (int, error) {
	list, err := r.getList()
	if err != nil {
		return 0, err
	}
	return len(list.Addresses), nil
}

func (r *custodyRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *custodyRepository) getList() (*custodyList, error) {
	var list custodyList
	err := r.store.Get(custodyKey, &list)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return &custodyList{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get custody addresses: %w", err)
	}
	return &list, nil
}
