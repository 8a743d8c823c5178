package storage

import (
	"context"
	"time"
)

// Storage abstracts persistence for tariffs, routes, economic cycles, loads
// and settlement snapshots, plus users, tokens and runtime settings.
type Storage interface {
	// Contractor tariffs
	ListContractorTariffs(ctx context.Context) ([]ContractorTariff, error)
	GetContractorTariff(ctx context.Context, vehicleType string) (*ContractorTariff, error)
	UpsertContractorTariff(ctx context.Context, t ContractorTariff) error

	// Client tariffs
	ListClientTariffs(ctx context.Context, clientID int64) ([]ClientTariff, error)
	SaveClientTariff(ctx context.Context, t ClientTariff) (uint, error)
	DeleteClientTariff(ctx context.Context, id uint) error

	// Routes
	ListRoutes(ctx context.Context) ([]Route, error)
	UpsertRoute(ctx context.Context, r Route) error

	// Economic cycles
	GetEconomicCycle(ctx context.Context, periodKey string) (*EconomicCycle, error)
	UpsertEconomicCycle(ctx context.Context, c EconomicCycle) error

	// Loads
	CreateLoad(ctx context.Context, l Load) error
	GetLoad(ctx context.Context, id string) (*Load, error)
	ListLoadsByTrip(ctx context.Context, tripID string) ([]Load, error)
	ListLoadsInRange(ctx context.Context, from, to time.Time) ([]Load, error)
	UpdateLoadStatus(ctx context.Context, id, status string) error
	FreezeLoadsInRange(ctx context.Context, from, to time.Time) (int64, error)

	// Settlement snapshots
	GetSettlementSnapshot(ctx context.Context, periodKey string) (*SettlementSnapshot, error)
	SaveSettlementSnapshot(ctx context.Context, snap SettlementSnapshot) error

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Users
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)

	// Tokens
	CreateToken(ctx context.Context, token Token) error
	GetToken(ctx context.Context, id string) (*Token, error)
	GetTokenByHash(ctx context.Context, hash string) (*Token, error)
	ListTokens(ctx context.Context, userID string) ([]Token, error)
	DeleteToken(ctx context.Context, id string) error
	UpdateTokenLastUsed(ctx context.Context, id string) error

	// Casbin rules
	LoadCasbinRules(ctx context.Context) ([]CasbinRule, error)
	AddCasbinRule(ctx context.Context, rule CasbinRule) error
	RemoveCasbinRule(ctx context.Context, rule CasbinRule) error

	// Email config
	GetEmailConfig(ctx context.Context) (*EmailConfig, error)
	SaveEmailConfig(ctx context.Context, config EmailConfig) error

	// Background jobs
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error)
	UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error

	// Health
	Ping(ctx context.Context) error

	// Close releases any resources (no-op for in-memory).
	Close() error
}
