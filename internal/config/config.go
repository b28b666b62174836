package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Datadir           string
	HTTPPort          uint32
	LogLevel          uint32
	AdminAccount      string
	EscrowAccount     string
	FeeRecipient      string
	DepositFeeSats    uint64
	WithdrawalFeeSats uint64
	OracleURL         string
	ReconcileInterval time.Duration
}

var (
	Datadir           = "DATADIR"
	HTTPPort          = "HTTP_PORT"
	LogLevel          = "LOG_LEVEL"
	AdminAccount      = "ADMIN_ACCOUNT"
	EscrowAccount     = "ESCROW_ACCOUNT"
	FeeRecipient      = "FEE_RECIPIENT"
	DepositFeeSats    = "DEPOSIT_FEE_SATS"
	WithdrawalFeeSats = "WITHDRAWAL_FEE_SATS"
	OracleURL         = "ORACLE_URL"
	ReconcileInterval = "RECONCILE_INTERVAL"

	defaultDatadir           = appDatadir("keelbridge")
	defaultHTTPPort          = 7100
	defaultLogLevel          = 4
	defaultEscrowAccount     = "bridge-escrow"
	defaultReconcileInterval = 5 * time.Minute
)

func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("KEELBRIDGE")
	viper.AutomaticEnv()

	viper.SetDefault(Datadir, defaultDatadir)
	viper.SetDefault(HTTPPort, defaultHTTPPort)
	viper.SetDefault(LogLevel, defaultLogLevel)
	viper.SetDefault(EscrowAccount, defaultEscrowAccount)
	viper.SetDefault(ReconcileInterval, defaultReconcileInterval)

	if err := initDatadir(); err != nil {
		return nil, fmt.Errorf("error while creating datadir: %s", err)
	}

	return &Config{
		Datadir:           viper.GetString(Datadir),
		HTTPPort:          viper.GetUint32(HTTPPort),
		LogLevel:          viper.GetUint32(LogLevel),
		AdminAccount:      viper.GetString(AdminAccount),
		EscrowAccount:     viper.GetString(EscrowAccount),
		FeeRecipient:      viper.GetString(FeeRecipient),
		DepositFeeSats:    viper.GetUint64(DepositFeeSats),
		WithdrawalFeeSats: viper.GetUint64(WithdrawalFeeSats),
		OracleURL:         viper.GetString(OracleURL),
		ReconcileInterval: viper.GetDuration(ReconcileInterval),
	}, nil
}

func initDatadir() error {
	datadir := viper.GetString(Datadir)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

func appDatadir(appName string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, "."+appName)
}
