package ports

import "github.com/KeelLabsHQ/keelbridge/internal/core/domain"

type RepoManager interface {
	Settings() domain.SettingsRepository
	Withdrawals() domain.WithdrawalRepository
	Deposits() domain.DepositRepository
	CustodyAddresses() domain.CustodyAddressRepository
	Access() domain.AccessRepository
	Close()
}
