package calendar

import (
	"fmt"
	"sync"

	"github.com/guilherme-santos/mirrorcal/internal"
)

// Mux holds one gateway per account.
type Mux struct {
	mu       sync.Mutex
	gateways map[string]internal.Gateway
}

func NewMux() *Mux {
	return &Mux{
		gateways: make(map[string]internal.Gateway),
	}
}

func (m *Mux) Get(account string) (internal.Gateway, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	gw, ok := m.gateways[account]
	if !ok {
		return nil, fmt.Errorf("account %q is not registered", account)
	}
	return gw, nil
}

func (m *Mux) Register(account string, gw internal.Gateway) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gateways[account] = gw
}
