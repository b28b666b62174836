package domain

import "context"

// Settings is the runtime administrative configuration. Changes are persisted
// so they survive restarts.
type Settings struct {
	FeeRecipient      string
	DepositFeeSats    uint64
	WithdrawalFeeSats uint64
	OracleURL         string
}

type SettingsRepository interface {
	AddSettings(ctx context.Context, settings Settings) error
	GetSettings(ctx context.Context) (*Settings, error)
	UpdateSettings(ctx context.Context, settings Settings) error
	Close()
}
