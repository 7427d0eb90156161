package circuitbreaker

import "sync"

// Registry manages named circuit breakers. Concurrent GetOrCreate calls for
// the same name always return the same breaker instance.
type Registry struct {
	breakers sync.Map // map[string]*CircuitBreaker
}

// NewRegistry creates an empty breaker registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// GetOrCreate returns the breaker registered under cfg.Name, creating it from
// cfg if it does not exist yet. The configuration of an existing breaker is
// never replaced.
func (r *Registry) GetOrCreate(cfg Config) (*CircuitBreaker, error) {
	if val, ok := r.breakers.Load(cfg.Name); ok {
		return val.(*CircuitBreaker), nil
	}

	b, err := New(cfg)
	if err != nil {
		return nil, err
	}

	actual, _ := r.breakers.LoadOrStore(cfg.Name, b)
	return actual.(*CircuitBreaker), nil
}

// Get returns the breaker registered under name, if any.
func (r *Registry) Get(name string) (*CircuitBreaker, bool) {
	val, ok := r.breakers.Load(name)
	if !ok {
		return nil, false
	}
	return val.(*CircuitBreaker), true
}

// Range calls fn for every registered breaker until fn returns false.
func (r *Registry) Range(fn func(b *CircuitBreaker) bool) {
	r.breakers.Range(func(_, val any) bool {
		return fn(val.(*CircuitBreaker))
	})
}
