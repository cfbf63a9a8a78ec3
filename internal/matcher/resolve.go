package matcher

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ratings-cli/internal/model"
)

// Lookup is the slice of the store the resolver needs. Each method returns
// nil when nothing matches.
type Lookup interface {
	FindByExactName(ctx context.Context, name string) (*model.University, error)
	FindByNameContains(ctx context.Context, fragment string) (*model.University, error)
	FindByNamePrefix(ctx context.Context, prefix string) (*model.University, error)
}

// Strategy names the cascade step that resolved a name.
type Strategy string

const (
	StrategyCacheExact     Strategy = "cache_exact"
	StrategyStoreExact     Strategy = "store_exact"
	StrategyCacheSubstring Strategy = "cache_substring"
	StrategyStoreContains  Strategy = "store_contains"
	StrategyStorePrefix    Strategy = "store_prefix"
)

// Strategies lists the cascade in priority order.
func Strategies() []Strategy {
	return []Strategy{
		StrategyCacheExact,
		StrategyStoreExact,
		StrategyCacheSubstring,
		StrategyStoreContains,
		StrategyStorePrefix,
	}
}

// Fragment lengths for the store searches.
const (
	containsRunes = 50
	prefixRunes   = 20
)

// Resolution is a resolved name.
type Resolution struct {
	University *model.University
	Strategy   Strategy
}

// Resolver maps free-text university names from external records onto
// stored universities.
type Resolver struct {
	index *NameIndex
	store Lookup
}

// NewResolver creates a resolver over a run-scoped index and the store.
func NewResolver(index *NameIndex, store Lookup) *Resolver {
	if index == nil {
		index = NewNameIndex(nil)
	}
	return &Resolver{index: index, store: store}
}

// Resolve runs the cascade and stops at the first hit:
//  1. Exact cache key
//  2. Exact name in the store
//  3. Cached key containing the name, or contained in it
//  4. Store name containing the first 50 runes (case-insensitive)
//  5. Store name starting with the first 20 runes, for names over 20 runes
//
// A miss is reported with ok=false and no error. Store errors are returned.
func (r *Resolver) Resolve(ctx context.Context, name string) (Resolution, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Resolution{}, false, nil
	}

	if u, ok := r.index.Exact(name); ok {
		return r.hit(name, u, StrategyCacheExact), true, nil
	}

	u, err := r.store.FindByExactName(ctx, name)
	if err != nil {
		return Resolution{}, false, eris.Wrap(err, "matcher: resolve by exact name")
	}
	if u != nil {
		return r.hit(name, u, StrategyStoreExact), true, nil
	}

	if u, ok := r.index.Containing(name); ok {
		return r.hit(name, u, StrategyCacheSubstring), true, nil
	}

	u, err = r.store.FindByNameContains(ctx, truncateRunes(name, containsRunes))
	if err != nil {
		return Resolution{}, false, eris.Wrap(err, "matcher: resolve by name fragment")
	}
	if u != nil {
		return r.hit(name, u, StrategyStoreContains), true, nil
	}

	if utf8.RuneCountInString(name) > prefixRunes {
		u, err = r.store.FindByNamePrefix(ctx, truncateRunes(name, prefixRunes))
		if err != nil {
			return Resolution{}, false, eris.Wrap(err, "matcher: resolve by name prefix")
		}
		if u != nil {
			return r.hit(name, u, StrategyStorePrefix), true, nil
		}
	}

	zap.L().Debug("resolve: no match", zap.String("name", name))
	return Resolution{}, false, nil
}

func (r *Resolver) hit(name string, u *model.University, s Strategy) Resolution {
	zap.L().Debug("resolve: matched",
		zap.String("name", name),
		zap.String("strategy", string(s)),
		zap.Int64("university_id", u.ID),
	)
	return Resolution{University: u, Strategy: s}
}
