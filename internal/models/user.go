package models

import "time"

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	DisplayName  string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Session struct {
	ID               string
	UserID           string
	DeviceID         string
	DeviceName       string
	RefreshTokenHash []byte
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}

type PlanType string

const (
	PlanSingle PlanType = "single"
	PlanPro    PlanType = "pro"
)

// EnhancementSlots is the number of enhanced portrait variants a run
// produces, and therefore the length of the regeneration credit array.
const EnhancementSlots = 4

// Entitlement is the per-user premium flag plus the per-slot regeneration
// credit counters. Credits are independent of the three photo slots.
type Entitlement struct {
	UserID    string
	Premium   bool
	Plan      *PlanType
	Credits   [EnhancementSlots]int
	UpdatedAt time.Time
}

// DefaultCredits is the balance granted at account creation.
func DefaultCredits() [EnhancementSlots]int {
	return [EnhancementSlots]int{2, 2, 2, 2}
}

// PremiumCredits is the fixed promotional refill applied on upgrade,
// regardless of the prior balance.
func PremiumCredits() [EnhancementSlots]int {
	return [EnhancementSlots]int{10, 10, 10, 10}
}
