package verification

import (
	"context"
	"time"
)

// Kind selects which verification scenario a flow session drives.
type Kind string

const (
	KindRegistration  Kind = "registration"
	KindPasswordReset Kind = "password-reset"
)

// Stage tracks how far a flow session has progressed.
type Stage string

const (
	StageCodeSent Stage = "code-sent"
	StageVerified Stage = "verified"
)

// CodeRecord is the stored one-time code for an identifier.
type CodeRecord struct {
	Code      string    `json:"code"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FlowState is the server-side session a continuation token points at.
type FlowState struct {
	Identifier string `json:"identifier"`
	Kind       Kind   `json:"kind"`
	Stage      Stage  `json:"stage"`
}

// Store persists one-time codes, verification attempt counters, resend
// cooldowns and continuation-token state. Implementations must serialize
// SaveCode/IncrAttempts/DeleteCode per identifier so a resend cannot race
// a concurrent verification.
//
// Expiry is decided by the Flow against CodeRecord.ExpiresAt, not by the
// store: records may outlive their validity window until read.
type Store interface {
	SaveCode(ctx context.Context, identifier string, rec CodeRecord) error
	GetCode(ctx context.Context, identifier string) (*CodeRecord, error)
	DeleteCode(ctx context.Context, identifier string) error
	IncrAttempts(ctx context.Context, identifier string) (int64, error)

	SetCooldown(ctx context.Context, identifier string, d time.Duration) error
	CooldownRemaining(ctx context.Context, identifier string) (time.Duration, error)

	SaveFlowState(ctx context.Context, token string, state FlowState, ttl time.Duration) error
	GetFlowState(ctx context.Context, token string) (*FlowState, error)
	DeleteFlowState(ctx context.Context, token string) error
}
