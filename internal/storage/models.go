package storage

import "time"

// Economic cycle and load status values.
const (
	CycleOpen   = "OPEN"
	CycleClosed = "CLOSED"

	LoadPending = "PENDING"
	LoadSettled = "SETTLED"
	LoadFrozen  = "FROZEN"
)

// ContractorTariff holds the contractor pricing rule for one vehicle type.
type ContractorTariff struct {
	VehicleType      string    `json:"vehicle_type" gorm:"primaryKey;column:vehicle_type"`
	BaseRatePerTonKm float64   `json:"base_rate_per_ton_km" gorm:"column:base_rate_per_ton_km"`
	MinWeightTons    float64   `json:"min_weight_tons" gorm:"column:min_weight_tons"`
	BaseFuelPrice    float64   `json:"base_fuel_price" gorm:"column:base_fuel_price"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// ClientTariff holds one client's price for one billing concept within a
// validity window. ValidTo is nil for open-ended tariffs.
type ClientTariff struct {
	ID            uint       `json:"id" gorm:"primaryKey;column:id"`
	ClientID      int64      `json:"client_id" gorm:"index;column:client_id"`
	Concept       string     `json:"concept" gorm:"column:concept"`
	RatePerTon    float64    `json:"rate_per_ton" gorm:"column:rate_per_ton"`
	MinWeightTons float64    `json:"min_weight_tons" gorm:"column:min_weight_tons"`
	ValidFrom     time.Time  `json:"valid_from" gorm:"column:valid_from"`
	ValidTo       *time.Time `json:"valid_to,omitempty" gorm:"column:valid_to"`
}

// Route is one distance edge between two logistics nodes. IsSegmentLink
// marks pickup legs used by consolidated trips.
type Route struct {
	ID            uint    `json:"id" gorm:"primaryKey;column:id"`
	OriginID      int64   `json:"origin_id" gorm:"uniqueIndex:idx_route_edge;column:origin_id"`
	DestinationID int64   `json:"destination_id" gorm:"uniqueIndex:idx_route_edge;column:destination_id"`
	DistanceKm    float64 `json:"distance_km" gorm:"column:distance_km"`
	IsSegmentLink bool    `json:"is_segment_link" gorm:"uniqueIndex:idx_route_edge;column:is_segment_link"`
}

// EconomicCycle is one monthly billing period with its economic indicators.
// The period key has the form YYYY-MM.
type EconomicCycle struct {
	PeriodKey string     `json:"period_key" gorm:"primaryKey;column:period_key"`
	UFValue   float64    `json:"uf_value" gorm:"column:uf_value"`
	FuelPrice float64    `json:"fuel_price" gorm:"column:fuel_price"`
	Status    string     `json:"status" gorm:"column:status"`
	StartDate time.Time  `json:"start_date" gorm:"column:start_date"`
	EndDate   time.Time  `json:"end_date" gorm:"column:end_date"`
	ClosedAt  *time.Time `json:"closed_at,omitempty" gorm:"column:closed_at"`
}

// Load is one recorded shipment. Loads sharing a TripID form a consolidated
// trip, ordered by SequenceInTrip. FinancialStatus tracks the settlement
// lifecycle; frozen loads belong to a closed accounting period.
type Load struct {
	ID              string    `json:"id" gorm:"primaryKey;column:id"`
	TripID          string    `json:"trip_id" gorm:"index;column:trip_id"`
	SequenceInTrip  int       `json:"sequence_in_trip" gorm:"column:sequence_in_trip"`
	ClientID        int64     `json:"client_id" gorm:"column:client_id"`
	VehicleType     string    `json:"vehicle_type" gorm:"column:vehicle_type"`
	OriginID        int64     `json:"origin_id" gorm:"column:origin_id"`
	DestinationID   int64     `json:"destination_id" gorm:"column:destination_id"`
	NetWeightTons   float64   `json:"net_weight_tons" gorm:"column:net_weight_tons"`
	GoesToTreatment bool      `json:"goes_to_treatment" gorm:"column:goes_to_treatment"`
	ServiceDate     time.Time `json:"service_date" gorm:"index;column:service_date"`
	FinancialStatus string    `json:"financial_status" gorm:"column:financial_status"`
	CreatedAt       time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// SettlementSnapshot stores a previously computed settlement payload for a
// billing period. The latest snapshot per period wins.
type SettlementSnapshot struct {
	ID          uint      `json:"-" gorm:"primaryKey;column:id"`
	PeriodKey   string    `json:"period_key" gorm:"index;column:period_key"`
	Payload     []byte    `json:"payload" gorm:"column:payload"`
	GeneratedAt time.Time `json:"generated_at" gorm:"column:generated_at"`
}

// User represents a registered user in the system.
type User struct {
	ID                    string    `json:"id" gorm:"primaryKey;column:id"`
	Username              string    `json:"username" gorm:"unique;column:username"`
	FirstName             string    `json:"first_name" gorm:"column:first_name"`
	LastName              string    `json:"last_name" gorm:"column:last_name"`
	Email                 string    `json:"email" gorm:"column:email"`
	EmailVerified         bool      `json:"email_verified" gorm:"column:email_verified"`
	SkipEmailVerification bool      `json:"skip_email_verification" gorm:"column:skip_email_verification"`
	PasswordHash          string    `json:"-" gorm:"column:password_hash"`
	Role                  string    `json:"role" gorm:"column:role"`
	CreatedAt             time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt             time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// Token represents an API access token.
type Token struct {
	ID         string     `json:"id" gorm:"primaryKey;column:id"`
	UserID     string     `json:"user_id" gorm:"column:user_id"`
	Name       string     `json:"name" gorm:"column:name"`
	TokenHash  string     `json:"-" gorm:"column:token_hash"`
	Role       string     `json:"role" gorm:"column:role"`
	CreatedAt  time.Time  `json:"created_at" gorm:"column:created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" gorm:"column:expires_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" gorm:"column:last_used_at"`
}

// CasbinRule represents a policy rule for RBAC.
type CasbinRule struct {
	ID    uint   `gorm:"primaryKey"`
	PType string `json:"ptype" gorm:"column:ptype"`
	V0    string `json:"v0" gorm:"column:v0"`
	V1    string `json:"v1" gorm:"column:v1"`
	V2    string `json:"v2" gorm:"column:v2"`
	V3    string `json:"v3" gorm:"column:v3"`
	V4    string `json:"v4" gorm:"column:v4"`
	V5    string `json:"v5" gorm:"column:v5"`
}

// EmailConfig holds configuration for email notifications.
type EmailConfig struct {
	ID          string    `json:"id" gorm:"primaryKey;column:id"`
	Provider    string    `json:"provider" gorm:"column:provider"` // "smtp", "sendgrid", "resend"
	Host        string    `json:"host,omitempty" gorm:"column:host"`
	Port        int       `json:"port,omitempty" gorm:"column:port"`
	Username    string    `json:"username,omitempty" gorm:"column:username"`
	Password    string    `json:"password,omitempty" gorm:"column:password"`
	FromAddress string    `json:"from_address" gorm:"column:from_address"`
	FromName    string    `json:"from_name" gorm:"column:from_name"`
	APIKey      string    `json:"api_key,omitempty" gorm:"column:api_key"`
	Encryption  string    `json:"encryption,omitempty" gorm:"column:encryption"` // "none", "ssl", "tls"
	Enabled     bool      `json:"enabled" gorm:"column:enabled"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// Setting is a runtime-tunable key/value configuration entry.
type Setting struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// ScheduledJob records the last outcome of a background job.
type ScheduledJob struct {
	Name           string    `gorm:"primaryKey;column:name"`
	LastRunAt      time.Time `gorm:"column:last_run_at"`
	LastDurationMs int64     `gorm:"column:last_duration_ms"`
	LastSuccess    int       `gorm:"column:last_success"`
	LastError      string    `gorm:"column:last_error"`
}
