package provider

import "sync"

// The registry is populated at process start from app wiring and read-only
// afterwards; the lock only matters if providers are ever registered at
// runtime.
var (
	mu        sync.RWMutex
	providers = make(map[string]PaymentProvider)
)

// Register installs a provider under a short key ("chapa", "paystack", ...).
func Register(key string, p PaymentProvider) {
	mu.Lock()
	defer mu.Unlock()
	providers[key] = p
}

// Get looks up a provider by key.
func Get(key string) (PaymentProvider, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := providers[key]

	return p, ok
}
