package domain

import "time"

// VerificationStatus tracks vetting of a handyman profile.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// HandymanProfile extends a HANDYMAN user with marketplace data.
type HandymanProfile struct {
	ID              string
	UserID          string
	Bio             string
	HourlyRate      float64
	Rating          float64
	ReviewCount     int
	CompletedOrders int
	IsAvailable     bool
	Verification    VerificationStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
