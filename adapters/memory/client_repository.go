package memory

import (
	"crypto/subtle"
	"errors"
	"sync"
)

var (
	ErrClientNotFound     = errors.New("client not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ClientRepository holds the API clients allowed to request tokens.
// Secrets are registered at startup from configuration.
type ClientRepository struct {
	mu      sync.RWMutex
	secrets map[string]string // client_id -> secret
}

// NewClientRepository creates a repository seeded with clients
func NewClientRepository(clients map[string]string) *ClientRepository {
	r := &ClientRepository{secrets: make(map[string]string, len(clients))}
	for id, secret := range clients {
		if id != "" && secret != "" {
			r.secrets[id] = secret
		}
	}
	return r
}

// ValidateClient checks client credentials (client ID + secret)
func (r *ClientRepository) ValidateClient(clientID, secret string) error {
	r.mu.RLock()
	stored, exists := r.secrets[clientID]
	r.mu.RUnlock()

	if !exists {
		return ErrClientNotFound
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(secret)) != 1 {
		return ErrInvalidCredentials
	}

	return nil
}

// Len reports how many clients are registered
func (r *ClientRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.secrets)
}
