package tripsync

import (
	"sync"

	"github.com/caffeinepub/travel-expense-tracker/internal/remote"
)

// Provider supplies the current remote service instance to the rest of the
// application. The connection is established out-of-band; until Set is
// called every consumer observes "not ready". Safe for concurrent use.
type Provider struct {
	mu  sync.RWMutex
	svc remote.Service
}

func NewProvider() *Provider {
	return &Provider{}
}

// NewReadyProvider returns a provider already bound to svc.
func NewReadyProvider(svc remote.Service) *Provider {
	p := NewProvider()
	p.Set(svc)
	return p
}

// Set installs (or swaps) the remote service. Passing nil revokes it.
func (p *Provider) Set(svc remote.Service) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.svc = svc
}

// Current returns the remote service, or false while it is unavailable.
func (p *Provider) Current() (remote.Service, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.svc == nil {
		return nil, false
	}
	return p.svc, true
}
