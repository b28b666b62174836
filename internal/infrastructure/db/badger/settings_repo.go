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
	settingsKey = "settings"
	settingsDir = "settings"
)

type settingsRepository struct {
	store *badgerhold.Store
}

func NewSettingsRepository(baseDir string, logger badger.Logger) (domain.SettingsRepository, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, settingsDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %s", err)
	}
	return &settingsRepository{store}, nil
}

func (r *settingsRepository) AddSettings(ctx context.Context, settings domain.Settings) error {
	if err := r.store.Insert(settingsKey, settings); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("settings already exist")
		}
		return err
	}
	return nil
}

func (r *settingsRepository) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var settings domain.Settings
	err := r.store.Get(settingsKey, &settings)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, fmt.Errorf("%w: settings", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &settings, nil
}

func (r *settingsRepository) UpdateSettings(ctx context.Context, settings domain.Settings) error {
	err := r.store.Update(settingsKey, settings)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("%w: settings", domain.ErrNotFound)
	}
	return err
}

func (r *settingsRepository) Close() {
	// nolint:all
	r.store.Close()
}
