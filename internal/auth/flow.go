package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"lexisync/internal/domain"
	"lexisync/internal/remote"
)

// ErrLoginInProgress rejects a second Begin while a flow is active.
var ErrLoginInProgress = errors.New("a login flow is already in progress")

// Authorizer is the device-code half of the remote gateway.
type Authorizer interface {
	DeviceCodeInitiate(ctx context.Context) (*domain.DeviceAuthorization, error)
	DeviceCodePoll(ctx context.Context, deviceCode string) (*domain.Credential, error)
}

// CompletionFunc receives the single terminal outcome of a flow. cred is
// non-nil only for AuthAuthorized.
type CompletionFunc func(phase domain.AuthPhase, cred *domain.Credential)

// Controller drives the device-code exchange:
// Idle -> Requesting -> AwaitingUserAction -> {Authorized, Expired, Failed},
// with cancellation returning to Idle. Transient poll errors are logged and
// retried silently; only the remote's definitive "not pending" answers end
// the loop. The terminal callback fires exactly once per flow, and no poll
// runs after cancellation takes effect.
type Controller struct {
	authorizer   Authorizer
	pollInterval time.Duration
	onComplete   CompletionFunc

	mu       sync.Mutex
	phase    domain.AuthPhase
	username string
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewController(authorizer Authorizer, pollInterval time.Duration, onComplete CompletionFunc) *Controller {
	return &Controller{
		authorizer:   authorizer,
		pollInterval: pollInterval,
		onComplete:   onComplete,
		phase:        domain.AuthIdle,
	}
}

// Status returns the current phase and, once authorized, the username.
func (c *Controller) Status() (domain.AuthPhase, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase, c.username
}

// Begin starts a flow and returns the code for the user to enter. The
// polling loop runs until a terminal response or cancellation.
func (c *Controller) Begin(ctx context.Context) (*domain.DeviceAuthorization, error) {
	c.mu.Lock()
	if c.phase == domain.AuthRequesting || c.phase == domain.AuthAwaitingUser {
		c.mu.Unlock()
		return nil, ErrLoginInProgress
	}
	c.phase = domain.AuthRequesting
	c.username = ""
	c.mu.Unlock()

	authz, err := c.authorizer.DeviceCodeInitiate(ctx)
	if err != nil {
		c.mu.Lock()
		c.phase = domain.AuthFailed
		c.mu.Unlock()
		return nil, fmt.Errorf("failed to initiate device flow: %w", err)
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.phase = domain.AuthAwaitingUser
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	go c.poll(pollCtx, authz.DeviceCode, done)

	return authz, nil
}

// Cancel aborts an in-flight flow. Idempotent; effective within one poll
// interval; a no-op once the flow reached a terminal phase.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Done exposes the poll loop's completion for tests and shutdown.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *Controller) poll(ctx context.Context, deviceCode string, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	var once sync.Once
	finish := func(phase domain.AuthPhase, cred *domain.Credential) {
		once.Do(func() {
			c.mu.Lock()
			c.phase = phase
			c.cancel = nil
			if cred != nil {
				c.username = cred.Username
			}
			c.mu.Unlock()

			if c.onComplete != nil {
				c.onComplete(phase, cred)
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.phase = domain.AuthIdle
			c.cancel = nil
			c.mu.Unlock()
			return

		case <-ticker.C:
			cred, err := c.authorizer.DeviceCodePoll(ctx, deviceCode)
			switch {
			case err == nil:
				c.enrichFromToken(cred)
				finish(domain.AuthAuthorized, cred)
				return

			case errors.Is(err, remote.ErrAuthorizationPending):
				// Still waiting on the user.

			case errors.Is(err, context.Canceled):
				c.mu.Lock()
				c.phase = domain.AuthIdle
				c.cancel = nil
				c.mu.Unlock()
				return

			case remote.IsTransient(err):
				log.Printf("[Auth] transient poll error, retrying: %v", err)

			case errors.Is(err, remote.ErrCodeExpired):
				finish(domain.AuthExpired, nil)
				return

			default:
				log.Printf("[Auth] device flow failed: %v", err)
				finish(domain.AuthFailed, nil)
				return
			}
		}
	}
}

// enrichFromToken fills gaps in the credential from the token's own claims.
func (c *Controller) enrichFromToken(cred *domain.Credential) {
	claims, err := ParseTokenClaims(cred.AccessToken)
	if err != nil {
		log.Printf("[Auth] could not parse token claims: %v", err)
		return
	}
	if cred.Username == "" {
		cred.Username = claims.Username
	}
	if cred.ExpiresAt.IsZero() && !claims.Expiry.IsZero() {
		cred.ExpiresAt = claims.Expiry
	}
}
