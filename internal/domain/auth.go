package domain

import "time"

// DeviceAuthorization is the remote's answer to a device-code initiation:
// the code the daemon polls with and the short code the user types in.
type DeviceAuthorization struct {
	DeviceCode      string        `json:"device_code"`
	UserCode        string        `json:"user_code"`
	VerificationURI string        `json:"verification_uri"`
	ExpiresIn       time.Duration `json:"expires_in"`
}

// Credential is the outcome of a completed device flow.
type Credential struct {
	Username    string    `json:"username"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (c Credential) Valid() bool {
	return c.AccessToken != "" && time.Now().Before(c.ExpiresAt)
}

// AuthPhase is the device-flow controller's state.
type AuthPhase string

const (
	AuthIdle         AuthPhase = "idle"
	AuthRequesting   AuthPhase = "requesting"
	AuthAwaitingUser AuthPhase = "awaiting_user"
	AuthAuthorized   AuthPhase = "authorized"
	AuthExpired      AuthPhase = "expired"
	AuthFailed       AuthPhase = "failed"
)

// Terminal reports whether the phase ends the flow.
func (p AuthPhase) Terminal() bool {
	switch p {
	case AuthAuthorized, AuthExpired, AuthFailed:
		return true
	default:
		return false
	}
}
