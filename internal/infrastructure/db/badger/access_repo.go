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
	accessKey = "access"
	accessDir = "access"
)

type accessState struct {
	Grants map[string][]domain.Capability
	Halted bool
}

type accessRepository struct {
	store *badgerhold.Store
}

func NewAccessRepository(baseDir string, logger badger.Logger) (domain.AccessRepository, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, accessDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open access store: %s", err)
	}
	return &accessRepository{store}, nil
}

func (r *accessRepository) Grant(ctx context.Context, account string, capability domain.Capability) error {
	state, err := r.getState()
	if err != nil {
		return err
	}
	for _, c := range state.Grants[account] {
		if c == capability {
			return nil
		}
	}
	if state.Grants == nil {
		state.Grants = make(map[string][]domain.Capability)
	}
	state.Grants[account] = append(state.Grants[account], capability)
	return r.store.Upsert(accessKey, *state)
}

func (r *accessRepository) Revoke(ctx context.Context, account string, capability domain.Capability) error {
	state, err := r.getState()
	if err != nil {
		return err
	}
	grants := state.Grants[account]
	kept := grants[:0]
	for _, c := range grants {
		if c != capability {
			kept = append(kept, c)
		}
	}
	state.Grants[account] = kept
	return r.store.Upsert(accessKey, *state)
}

func (r *accessRepository) Has(ctx context.Context, account string, capability domain.Capability) (bool, error) {
	state, err := r.getState()
	if err != nil {
		return false, err
	}
	for _, c := range state.Grants[account] {
		if c == capability {
			return true, nil
		}
	}
	return false, nil
}

func (r *accessRepository) Grants(ctx context.Context, account string) ([]domain.Capability, error) {
	state, err := r.getState()
	if err != nil {
		return nil, err
	}
	grants := make([]domain.Capability, len(state.Grants[account]))
	copy(grants, state.Grants[account])
	return grants, nil
}

func (r *accessRepository) SetHalted(ctx context.Context, halted bool) error {
	state, err := r.getState()
	if err != nil {
		return err
	}
	state.Halted = halted
	return r.store.Upsert(accessKey, *state)
}

func (r *accessRepository) Halted(ctx context.Context) (bool, error) {
	state, err := r.getState()
	if err != nil {
		return false, err
	}
	return state.Halted, nil
}

func (r *accessRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *accessRepository) getState() (*accessState, error) {
	var state accessState
	err := r.store.Get(accessKey, &state)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return &accessState{Grants: make(map[string][]domain.Capability)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get access state: %w", err)
	}
	if state.Grants == nil {
		state.Grants = make(map[string][]domain.Capability)
	}
	return &state, nil
}
