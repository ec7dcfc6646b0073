package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/reconcile/models"
	"storefront/pkg/requestcontext"
)

const (
	defaultSessionTTL  = 24 * time.Hour
	defaultRecoveryTTL = time.Hour
)

type memoryAccount struct {
	account models.IdentityAccount
	hash    []byte
}

// MemoryProvider is an in-process identity service for development and tests.
// Emails match exactly, like the hosted provider.
type MemoryProvider struct {
	mu         sync.RWMutex
	byEmail    map[string]*memoryAccount
	ids        map[string]struct{}
	recovery   map[string]models.RecoveryToken
	bcryptCost int
}

// NewMemoryProvider returns an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		byEmail:    make(map[string]*memoryAccount),
		ids:        make(map[string]struct{}),
		recovery:   make(map[string]models.RecoveryToken),
		bcryptCost: bcrypt.MinCost,
	}
}

func (p *MemoryProvider) CreateSession(ctx context.Context, email, password string) (*models.Session, error) {
	p.mu.RLock()
	acc, ok := p.byEmail[email]
	p.mu.RUnlock()
	if !ok {
		return nil, NewError(KindNotFound, "create_session", "account not found", nil)
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return nil, NewError(KindInvalidCredentials, "create_session", "invalid credentials", nil)
	}
	return &models.Session{
		ID:        uuid.NewString(),
		AccountID: acc.account.ID,
		Email:     email,
		ExpiresAt: requestcontext.Now(ctx).Add(defaultSessionTTL),
	}, nil
}

func (p *MemoryProvider) CreateAccount(_ context.Context, id, email, password, displayName string) (*models.IdentityAccount, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return nil, NewError(KindOther, "create_account", "password rejected", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, taken := p.byEmail[email]; taken {
		return nil, NewError(KindCollision, "create_account", "account with this email already exists", nil)
	}
	if _, taken := p.ids[id]; taken {
		return nil, NewError(KindOther, "create_account", "account id already in use", nil)
	}
	acc := &memoryAccount{
		account: models.IdentityAccount{ID: id, Email: email, DisplayName: displayName},
		hash:    hash,
	}
	p.byEmail[email] = acc
	p.ids[id] = struct{}{}
	out := acc.account
	return &out, nil
}

func (p *MemoryProvider) StartRecovery(ctx context.Context, email, _ string) (*models.RecoveryToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	acc, ok := p.byEmail[email]
	if !ok {
		return nil, NewError(KindNotFound, "start_recovery", "account not found", nil)
	}
	token := models.RecoveryToken{
		ID:        uuid.NewString(),
		AccountID: acc.account.ID,
		ExpiresAt: requestcontext.Now(ctx).Add(defaultRecoveryTTL),
	}
	p.recovery[token.ID] = token
	return &token, nil
}

// AccountExists implements ports.ExistenceChecker.
func (p *MemoryProvider) AccountExists(_ context.Context, email string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.byEmail[email]
	return ok, nil
}

// Accounts returns every account holding email. Used by tests asserting that
// repairs never duplicate identities.
func (p *MemoryProvider) Accounts(email string) []models.IdentityAccount {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if acc, ok := p.byEmail[email]; ok {
		return []models.IdentityAccount{acc.account}
	}
	return nil
}

// PendingRecoveries returns the number of recovery flows started.
func (p *MemoryProvider) PendingRecoveries() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.recovery)
}
