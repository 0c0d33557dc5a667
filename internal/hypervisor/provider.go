package hypervisor

import "sync"

// Settings is the connection configuration a Client is built from.
type Settings struct {
	URL         string
	TokenID     string
	TokenSecret string
}

// Provider hands out immutable Clients built from the current settings.
// Updating the settings swaps the snapshot; in-flight requests keep the
// client they started with, so a config change never races a request.
type Provider struct {
	mu       sync.RWMutex
	settings Settings
}

func NewProvider(settings Settings) *Provider {
	return &Provider{settings: settings}
}

// Client builds a client from the current settings snapshot.
func (p *Provider) Client() *Client {
	p.mu.RLock()
	s := p.settings
	p.mu.RUnlock()
	return NewClient(s.URL, s.TokenID, s.TokenSecret)
}

// UpdateSettings replaces the connection settings. Subsequent Client
// calls use the new settings; existing clients are unaffected.
func (p *Provider) UpdateSettings(settings Settings) {
	p.mu.Lock()
	p.settings = settings
	p.mu.Unlock()
}
