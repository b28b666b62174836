package db

import (
	"fmt"
	"strings"

	"github.com/KeelLabsHQ/keelbridge/internal/core/domain"
	"github.com/KeelLabsHQ/keelbridge/internal/core/ports"
	badgerdb "github.com/KeelLabsHQ/keelbridge/internal/infrastructure/db/badger"
	"github.com/dgraph-io/badger/v4"
)

var allowedTypes = strings.Join([]string{"badger"}, ",")

type ServiceConfig struct {
	DbType   string
	DbConfig []any
}

type service struct {
	settingsRepo   domain.SettingsRepository
	withdrawalRepo domain.WithdrawalRepository
	depositRepo    domain.DepositRepository
	custodyRepo    domain.CustodyAddressRepository
	accessRepo     domain.AccessRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	var (
		settingsRepo   domain.SettingsRepository
		withdrawalRepo domain.WithdrawalRepository
		depositRepo    domain.DepositRepository
		custodyRepo    domain.CustodyAddressRepository
		accessRepo     domain.AccessRepository
		err            error
	)
	switch config.DbType {
	case "badger":
		if len(config.DbConfig) != 2 {
			return nil, fmt.Errorf("badger db config must have 2 elements, got %d", len(config.DbConfig))
		}
		baseDir, ok := config.DbConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}
		var logger badger.Logger
		if config.DbConfig[1] != nil {
			logger, ok = config.DbConfig[1].(badger.Logger)
			if !ok {
				return nil, fmt.Errorf("invalid logger")
			}
		}
		settingsRepo, err = badgerdb.NewSettingsRepository(baseDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open settings db: %s", err)
		}
		withdrawalRepo, err = badgerdb.NewWithdrawalRepository(baseDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open withdrawal db: %s", err)
		}
		depositRepo, err = badgerdb.NewDepositRepository(baseDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open deposit db: %s", err)
		}
		custodyRepo, err = badgerdb.NewCustodyAddressRepository(baseDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open custody db: %s", err)
		}
		accessRepo, err = badgerdb.NewAccessRepository(baseDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open access db: %s", err)
		}
	default:
		return nil, fmt.Errorf("unsupported db type %s, please select one of %s", config.DbType, allowedTypes)
	}

	return &service{
		settingsRepo:   settingsRepo,
		withdrawalRepo: withdrawalRepo,
		depositRepo:    depositRepo,
		custodyRepo:    custodyRepo,
		accessRepo:     accessRepo,
	}, nil
}

func (s *service) Settings() domain.SettingsRepository {
	return s.settingsRepo
}

func (s *service) Withdrawals() domain.WithdrawalRepository {
	return s.withdrawalRepo
}

func (s *service) Deposits() domain.DepositRepository {
	return s.depositRepo
}

func (s *service) CustodyAddresses() domain.CustodyAddressRepository {
	return s.custodyRepo
}

func (s *service) Access() domain.AccessRepository {
	return s.accessRepo
}

func (s *service) Close() {
	s.settingsRepo.Close()
	s.withdrawalRepo.Close()
	s.depositRepo.Close()
	s.custodyRepo.Close()
	s.accessRepo.Close()
}
