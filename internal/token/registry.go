package token

import (
	"fmt"
	"strings"
	"sync"
)

// Registry is a thread-safe index of known tokens by symbol. Mints are
// tracked only to reject duplicates.
type Registry struct {
	mu       sync.RWMutex
	bySymbol map[string]*Token
	byMint   map[string]*Token
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bySymbol: make(map[string]*Token),
		byMint:   make(map[string]*Token),
	}
}

// Register adds t. It panics on a duplicate symbol or mint.
func (r *Registry) Register(t *Token) {
	if t == nil {
		panic("token: cannot register nil token")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToUpper(t.Symbol)
	if _, ok := r.bySymbol[key]; ok {
		panic(fmt.Sprintf("token: %s already registered", key))
	}
	if t.Mint != "" {
		if _, ok := r.byMint[t.Mint]; ok {
			panic(fmt.Sprintf("token: mint %s already registered", t.Mint))
		}
		r.byMint[t.Mint] = t
	}
	r.bySymbol[key] = t
}

// BySymbol looks a token up, ignoring case.
func (r *Registry) BySymbol(symbol string) (*Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	return t, ok
}

// HistoryID returns the historical price API id for symbol.
func (r *Registry) HistoryID(symbol string) (string, bool) {
	t, ok := r.BySymbol(symbol)
	if !ok || t.HistoryID == "" {
		return "", false
	}
	return t.HistoryID, true
}

// OverrideHistoryIDs replaces history ids from a symbol -> id map. Unknown
// symbols are registered as display-only tokens.
func (r *Registry) OverrideHistoryIDs(ids map[string]string) {
	for symbol, id := range ids {
		if t, ok := r.BySymbol(symbol); ok {
			r.mu.Lock()
			t.HistoryID = id
			r.mu.Unlock()
			continue
		}
		r.Register(New(symbol, symbol, "", 0, id))
	}
}

// Count returns the number of registered tokens.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySymbol)
}
