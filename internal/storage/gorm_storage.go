package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type GormStorage struct {
	db *gorm.DB
}

func NewGormStorage(driver, dsn string) (*GormStorage, error) {
	var gormDialector gorm.Dialector
	if driver == "postgres" || driver == "postgrespool" {
		gormDialector = postgres.Open(dsn)
	} else if driver == "sqlite" {
		gormDialector = sqlite.Open(dsn)
	} else {
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := gorm.Open(gormDialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	return &GormStorage{db: db}, nil
}

func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.AutoMigrate(
		&ContractorTariff{},
		&ClientTariff{},
		&Route{},
		&EconomicCycle{},
		&Load{},
		&SettlementSnapshot{},
		&Setting{},
		&User{},
		&Token{},
		&CasbinRule{},
		&EmailConfig{},
		&ScheduledJob{},
	)
}

// Contractor tariffs

func (s *GormStorage) ListContractorTariffs(ctx context.Context) ([]ContractorTariff, error) {
	var tariffs []ContractorTariff
	result := s.db.WithContext(ctx).Find(&tariffs)
	return tariffs, result.Error
}

func (s *GormStorage) GetContractorTariff(ctx context.Context, vehicleType string) (*ContractorTariff, error) {
	var t ContractorTariff
	result := s.db.WithContext(ctx).First(&t, "vehicle_type = ?", vehicleType)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &t, nil
}

func (s *GormStorage) UpsertContractorTariff(ctx context.Context, t ContractorTariff) error {
	t.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "vehicle_type"}},
		UpdateAll: true,
	}).Create(&t).Error
}

// Client tariffs

func (s *GormStorage) ListClientTariffs(ctx context.Context, clientID int64) ([]ClientTariff, error) {
	var tariffs []ClientTariff
	result := s.db.WithContext(ctx).Find(&tariffs, "client_id = ?", clientID)
	return tariffs, result.Error
}

func (s *GormStorage) SaveClientTariff(ctx context.Context, t ClientTariff) (uint, error) {
	result := s.db.WithContext(ctx).Save(&t)
	return t.ID, result.Error
}

func (s *GormStorage) DeleteClientTariff(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&ClientTariff{}, "id = ?", id).Error
}

// Routes

func (s *GormStorage) ListRoutes(ctx context.Context) ([]Route, error) {
	var routes []Route
	result := s.db.WithContext(ctx).Find(&routes)
	return routes, result.Error
}

func (s *GormStorage) UpsertRoute(ctx context.Context, r Route) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "origin_id"}, {Name: "destination_id"}, {Name: "is_segment_link"}},
		UpdateAll: true,
	}).Create(&r).Error
}

// Economic cycles

func (s *GormStorage) GetEconomicCycle(ctx context.Context, periodKey string) (*EconomicCycle, error) {
	var c EconomicCycle
	result := s.db.WithContext(ctx).First(&c, "period_key = ?", periodKey)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &c, nil
}

func (s *GormStorage) UpsertEconomicCycle(ctx context.Context, c EconomicCycle) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "period_key"}},
		UpdateAll: true,
	}).Create(&c).Error
}

// Loads

func (s *GormStorage) CreateLoad(ctx context.Context, l Load) error {
	return s.db.WithContext(ctx).Create(&l).Error
}

func (s *GormStorage) GetLoad(ctx context.Context, id string) (*Load, error) {
	var l Load
	result := s.db.WithContext(ctx).First(&l, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &l, nil
}

func (s *GormStorage) ListLoadsByTrip(ctx context.Context, tripID string) ([]Load, error) {
	var loads []Load
	result := s.db.WithContext(ctx).Order("sequence_in_trip asc").Find(&loads, "trip_id = ?", tripID)
	return loads, result.Error
}

func (s *GormStorage) ListLoadsInRange(ctx context.Context, from, to time.Time) ([]Load, error) {
	var loads []Load
	result := s.db.WithContext(ctx).
		Where("service_date >= ? AND service_date <= ?", from, to).
		Order("service_date asc, trip_id asc, sequence_in_trip asc").
		Find(&loads)
	return loads, result.Error
}

func (s *GormStorage) UpdateLoadStatus(ctx context.Context, id, status string) error {
	return s.db.WithContext(ctx).Model(&Load{}).Where("id = ?", id).
		Updates(map[string]any{"financial_status": status, "updated_at": time.Now()}).Error
}

func (s *GormStorage) FreezeLoadsInRange(ctx context.Context, from, to time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&Load{}).
		Where("service_date >= ? AND service_date <= ? AND financial_status <> ?", from, to, LoadFrozen).
		Updates(map[string]any{"financial_status": LoadFrozen, "updated_at": time.Now()})
	return result.RowsAffected, result.Error
}

// Settlement snapshots

func (s *GormStorage) GetSettlementSnapshot(ctx context.Context, periodKey string) (*SettlementSnapshot, error) {
	var snap SettlementSnapshot
	result := s.db.WithContext(ctx).Order("generated_at desc").First(&snap, "period_key = ?", periodKey)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &snap, nil
}

func (s *GormStorage) SaveSettlementSnapshot(ctx context.Context, snap SettlementSnapshot) error {
	return s.db.WithContext(ctx).Create(&snap).Error
}

// Settings

func (s *GormStorage) GetSetting(ctx context.Context, key string) (string, error) {
	var setting Setting
	result := s.db.WithContext(ctx).First(&setting, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", result.Error
	}
	return setting.Value, nil
}

func (s *GormStorage) SetSetting(ctx context.Context, key, value string) error {
	setting := Setting{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&setting).Error
}

// Users

func (s *GormStorage) CreateUser(ctx context.Context, user User) error {
	return s.db.WithContext(ctx).Create(&user).Error
}

func (s *GormStorage) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	result := s.db.WithContext(ctx).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &user, nil
}

func (s *GormStorage) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	result := s.db.WithContext(ctx).First(&user, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &user, nil
}

func (s *GormStorage) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	result := s.db.WithContext(ctx).First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &user, nil
}

func (s *GormStorage) UpdateUser(ctx context.Context, user User) error {
	return s.db.WithContext(ctx).Save(&user).Error
}

func (s *GormStorage) DeleteUser(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&User{}, "id = ?", id).Error
}

func (s *GormStorage) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	result := s.db.WithContext(ctx).Find(&users)
	return users, result.Error
}

// Tokens

func (s *GormStorage) CreateToken(ctx context.Context, token Token) error {
	return s.db.WithContext(ctx).Create(&token).Error
}

func (s *GormStorage) GetToken(ctx context.Context, id string) (*Token, error) {
	var token Token
	result := s.db.WithContext(ctx).First(&token, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &token, nil
}

func (s *GormStorage) GetTokenByHash(ctx context.Context, hash string) (*Token, error) {
	var token Token
	result := s.db.WithContext(ctx).First(&token, "token_hash = ?", hash)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &token, nil
}

func (s *GormStorage) ListTokens(ctx context.Context, userID string) ([]Token, error) {
	var tokens []Token
	result := s.db.WithContext(ctx).Find(&tokens, "user_id = ?", userID)
	return tokens, result.Error
}

func (s *GormStorage) DeleteToken(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&Token{}, "id = ?", id).Error
}

func (s *GormStorage) UpdateTokenLastUsed(ctx context.Context, id string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&Token{}).Where("id = ?", id).Update("last_used_at", now).Error
}

// Casbin Rules

func (s *GormStorage) LoadCasbinRules(ctx context.Context) ([]CasbinRule, error) {
	var rules []CasbinRule
	result := s.db.WithContext(ctx).Find(&rules)
	return rules, result.Error
}

func (s *GormStorage) AddCasbinRule(ctx context.Context, rule CasbinRule) error {
	return s.db.WithContext(ctx).Create(&rule).Error
}

func (s *GormStorage) RemoveCasbinRule(ctx context.Context, rule CasbinRule) error {
	return s.db.WithContext(ctx).Where(&rule).Delete(&CasbinRule{}).Error
}

// Email Config

func (s *GormStorage) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	var config EmailConfig
	result := s.db.WithContext(ctx).First(&config)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &config, nil
}

func (s *GormStorage) SaveEmailConfig(ctx context.Context, config EmailConfig) error {
	if config.ID == "" {
		config.ID = "default"
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&config).Error
}

// Close & Ping

func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Scheduled Jobs & Locking

func (s *GormStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	if s.db.Dialector.Name() == "postgres" {
		var ok bool
		err := s.db.WithContext(ctx).Raw("SELECT pg_try_advisory_lock(?)", key).Scan(&ok).Error
		return ok, err
	}
	// SQLite has no advisory locks; a single instance is assumed.
	return true, nil
}

func (s *GormStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	if s.db.Dialector.Name() == "postgres" {
		var ok bool
		err := s.db.WithContext(ctx).Raw("SELECT pg_advisory_unlock(?)", key).Scan(&ok).Error
		return ok, err
	}
	return true, nil
}

func (s *GormStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	status := 0
	if success {
		status = 1
	}
	job := ScheduledJob{
		Name:           name,
		LastRunAt:      started,
		LastDurationMs: dur.Milliseconds(),
		LastSuccess:    status,
		LastError:      errMsg,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		UpdateAll: true,
	}).Create(&job).Error
}
