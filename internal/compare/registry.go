package compare

// Registry maps strategy ids to comparators. It is built once at startup so
// unknown-strategy errors surface at config validation, not at call time.
type Registry struct {
	strategies map[string]Comparator
	order      []string
}

// NewRegistry returns an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Comparator)}
}

// Register adds a comparator. Re-registering an id replaces the previous
// comparator but keeps its position.
func (r *Registry) Register(c Comparator) {
	if _, exists := r.strategies[c.ID()]; !exists {
		r.order = append(r.order, c.ID())
	}
	r.strategies[c.ID()] = c
}

// Get returns the comparator for a strategy id.
func (r *Registry) Get(id string) (Comparator, bool) {
	c, ok := r.strategies[id]
	return c, ok
}

// Infos returns the metadata of all registered strategies in registration
// order.
func (r *Registry) Infos() []StrategyInfo {
	infos := make([]StrategyInfo, 0, len(r.order))
	for _, id := range r.order {
		c := r.strategies[id]
		infos = append(infos, StrategyInfo{
			ID:          c.ID(),
			Name:        c.Name(),
			Description: c.Description(),
			Version:     c.Version(),
		})
	}
	return infos
}

// DefaultRegistry builds the registry with the five built-in strategies.
// The historical strategy needs repository access to load price series.
func DefaultRegistry(history HistoricalPriceRepository) *Registry {
	r := NewRegistry()
	r.Register(NewPricePerCanonicalComparator())
	r.Register(NewTotalPriceComparator())
	r.Register(NewPricePerUnitComparator())
	r.Register(NewQualityAdjustedComparator())
	r.Register(NewHistoricalPriceComparator(history))
	return r
}
