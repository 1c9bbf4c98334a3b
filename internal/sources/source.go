package sources

import (
	"context"
	"fmt"

	"github.com/plexarr/plexarr/internal/config"
	"github.com/plexarr/plexarr/internal/models"
)

// Adapter fetches raw watchlist entries from one external source and
// normalizes them into canonical items. A fresh call re-fetches the full
// list; fetches are not restartable.
type Adapter interface {
	Type() models.SourceType
	Fetch(ctx context.Context, settings config.SyncSettings) ([]models.WatchlistItem, error)
}

// Registry holds the configured adapters, selected per run by source type
type Registry struct {
	adapters map[models.SourceType]Adapter
}

// NewRegistry creates a registry over the given adapters
func NewRegistry(adapters ...Adapter) *Registry {
	reg := &Registry{adapters: make(map[models.SourceType]Adapter, len(adapters))}
	for _, a := range adapters {
		reg.adapters[a.Type()] = a
	}
	return reg
}

// ForType returns the adapter for a source type
func (r *Registry) ForType(t models.SourceType) (Adapter, error) {
	adapter, ok := r.adapters[t]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter for source type %q", models.ErrConfigInvalid, t)
	}
	return adapter, nil
}
