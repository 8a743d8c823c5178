package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage implementation, useful for tests and
// simple single-process deployments.
type MemoryStorage struct {
	mu                sync.RWMutex
	contractorTariffs map[string]ContractorTariff
	clientTariffs     map[uint]ClientTariff
	nextClientTariff  uint
	routes            map[string]Route
	cycles            map[string]EconomicCycle
	loads             map[string]Load
	snapshots         map[string][]SettlementSnapshot
	settings          map[string]string
	users             map[string]User
	tokens            map[string]Token
	emailConfig       *EmailConfig
	jobs              map[string]ScheduledJob
}

// NewMemory returns an empty MemoryStorage.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		contractorTariffs: make(map[string]ContractorTariff),
		clientTariffs:     make(map[uint]ClientTariff),
		nextClientTariff:  1,
		routes:            make(map[string]Route),
		cycles:            make(map[string]EconomicCycle),
		loads:             make(map[string]Load),
		snapshots:         make(map[string][]SettlementSnapshot),
		settings:          make(map[string]string),
		users:             make(map[string]User),
		tokens:            make(map[string]Token),
		jobs:              make(map[string]ScheduledJob),
	}
}

func (m *MemoryStorage) Close() error { return nil }

func (m *MemoryStorage) Ping(ctx context.Context) error { return nil }

// Contractor tariffs

func (m *MemoryStorage) ListContractorTariffs(ctx context.Context) ([]ContractorTariff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ContractorTariff, 0, len(m.contractorTariffs))
	for _, t := range m.contractorTariffs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleType < out[j].VehicleType })
	return out, nil
}

func (m *MemoryStorage) GetContractorTariff(ctx context.Context, vehicleType string) (*ContractorTariff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.contractorTariffs[vehicleType]
	if !ok {
		return nil, nil
	}
	cp := t
	return &cp, nil
}

func (m *MemoryStorage) UpsertContractorTariff(ctx context.Context, t ContractorTariff) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.UpdatedAt = time.Now()
	m.contractorTariffs[t.VehicleType] = t
	return nil
}

// Client tariffs

func (m *MemoryStorage) ListClientTariffs(ctx context.Context, clientID int64) ([]ClientTariff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ClientTariff
	for _, t := range m.clientTariffs {
		if t.ClientID == clientID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStorage) SaveClientTariff(ctx context.Context, t ClientTariff) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.nextClientTariff
		m.nextClientTariff++
	}
	m.clientTariffs[t.ID] = t
	return t.ID, nil
}

func (m *MemoryStorage) DeleteClientTariff(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clientTariffs, id)
	return nil
}

// Routes

func routeEdgeKey(originID, destinationID int64, isSegmentLink bool) string {
	return fmt.Sprintf("%d:%d:%t", originID, destinationID, isSegmentLink)
}

func (m *MemoryStorage) ListRoutes(ctx context.Context) ([]Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Route, 0, len(m.routes))
	for _, r := range m.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OriginID != out[j].OriginID {
			return out[i].OriginID < out[j].OriginID
		}
		return out[i].DestinationID < out[j].DestinationID
	})
	return out, nil
}

func (m *MemoryStorage) UpsertRoute(ctx context.Context, r Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := routeEdgeKey(r.OriginID, r.DestinationID, r.IsSegmentLink)
	if prev, ok := m.routes[key]; ok {
		r.ID = prev.ID
	} else {
		r.ID = uint(len(m.routes) + 1)
	}
	m.routes[key] = r
	return nil
}

// Economic cycles

func (m *MemoryStorage) GetEconomicCycle(ctx context.Context, periodKey string) (*EconomicCycle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cycles[periodKey]
	if !ok {
		return nil, nil
	}
	cp := c
	return &cp, nil
}

func (m *MemoryStorage) UpsertEconomicCycle(ctx context.Context, c EconomicCycle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles[c.PeriodKey] = c
	return nil
}

// Loads

func (m *MemoryStorage) CreateLoad(ctx context.Context, l Load) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	m.loads[l.ID] = l
	return nil
}

func (m *MemoryStorage) GetLoad(ctx context.Context, id string) (*Load, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.loads[id]
	if !ok {
		return nil, nil
	}
	cp := l
	return &cp, nil
}

func (m *MemoryStorage) ListLoadsByTrip(ctx context.Context, tripID string) ([]Load, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Load
	for _, l := range m.loads {
		if l.TripID == tripID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceInTrip < out[j].SequenceInTrip })
	return out, nil
}

func (m *MemoryStorage) ListLoadsInRange(ctx context.Context, from, to time.Time) ([]Load, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Load
	for _, l := range m.loads {
		if l.ServiceDate.Before(from) || l.ServiceDate.After(to) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ServiceDate.Equal(out[j].ServiceDate) {
			return out[i].ServiceDate.Before(out[j].ServiceDate)
		}
		if out[i].TripID != out[j].TripID {
			return out[i].TripID < out[j].TripID
		}
		return out[i].SequenceInTrip < out[j].SequenceInTrip
	})
	return out, nil
}

func (m *MemoryStorage) UpdateLoadStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.loads[id]; ok {
		l.FinancialStatus = status
		l.UpdatedAt = time.Now()
		m.loads[id] = l
	}
	return nil
}

func (m *MemoryStorage) FreezeLoadsInRange(ctx context.Context, from, to time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, l := range m.loads {
		if l.ServiceDate.Before(from) || l.ServiceDate.After(to) {
			continue
		}
		if l.FinancialStatus == LoadFrozen {
			continue
		}
		l.FinancialStatus = LoadFrozen
		l.UpdatedAt = time.Now()
		m.loads[id] = l
		n++
	}
	return n, nil
}

// Settlement snapshots

func (m *MemoryStorage) GetSettlementSnapshot(ctx context.Context, periodKey string) (*SettlementSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snaps := m.snapshots[periodKey]
	if len(snaps) == 0 {
		return nil, nil
	}
	cp := snaps[len(snaps)-1]
	return &cp, nil
}

func (m *MemoryStorage) SaveSettlementSnapshot(ctx context.Context, snap SettlementSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.GeneratedAt.IsZero() {
		snap.GeneratedAt = time.Now()
	}
	snap.ID = uint(len(m.snapshots[snap.PeriodKey]) + 1)
	m.snapshots[snap.PeriodKey] = append(m.snapshots[snap.PeriodKey], snap)
	return nil
}

// Settings

func (m *MemoryStorage) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[key], nil
}

func (m *MemoryStorage) SetSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

// Users

func (m *MemoryStorage) CreateUser(ctx context.Context, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MemoryStorage) GetUser(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *MemoryStorage) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *MemoryStorage) UpdateUser(ctx context.Context, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return nil
	}
	m.users[user.ID] = user
	return nil
}

func (m *MemoryStorage) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *MemoryStorage) ListUsers(ctx context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

// Tokens

func (m *MemoryStorage) CreateToken(ctx context.Context, token Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.ID] = token
	return nil
}

func (m *MemoryStorage) GetToken(ctx context.Context, id string) (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *MemoryStorage) GetTokenByHash(ctx context.Context, hash string) (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			return &t, nil
		}
	}
	return nil, nil
}

func (m *MemoryStorage) ListTokens(ctx context.Context, userID string) ([]Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Token
	for _, t := range m.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MemoryStorage) DeleteToken(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, id)
	return nil
}

func (m *MemoryStorage) UpdateTokenLastUsed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[id]; ok {
		now := time.Now()
		t.LastUsedAt = &now
		m.tokens[id] = t
	}
	return nil
}

// Casbin rules are not persisted in memory; the enforcer starts with
// default policies.

func (m *MemoryStorage) LoadCasbinRules(ctx context.Context) ([]CasbinRule, error) {
	return nil, nil
}

func (m *MemoryStorage) AddCasbinRule(ctx context.Context, rule CasbinRule) error {
	return nil
}

func (m *MemoryStorage) RemoveCasbinRule(ctx context.Context, rule CasbinRule) error {
	return nil
}

// Email config

func (m *MemoryStorage) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.emailConfig == nil {
		return nil, nil
	}
	cfg := *m.emailConfig
	return &cfg, nil
}

func (m *MemoryStorage) SaveEmailConfig(ctx context.Context, config EmailConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emailConfig = &config
	return nil
}

// Background jobs

func (m *MemoryStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	// Single instance always acquires the lock.
	return true, nil
}

func (m *MemoryStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	return true, nil
}

func (m *MemoryStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := 0
	if success {
		status = 1
	}
	m.jobs[name] = ScheduledJob{
		Name:           name,
		LastRunAt:      started,
		LastDurationMs: dur.Milliseconds(),
		LastSuccess:    status,
		LastError:      errMsg,
	}
	return nil
}
