package pointsto

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/BarrensZeppelin/pointsto/ir"
	"golang.org/x/sync/singleflight"
)

// Cache owns everything shared between analyses of one program: interned
// locations and entities, and the results computed so far. Results are
// keyed by graph, interprocedural context and configuration, and are never
// invalidated; the owner decides the lifetime of the cache.
//
// A Cache is safe for concurrent use.
type Cache struct {
	locs     *locationTable
	entities *EntityFactory

	mu      sync.Mutex
	results map[resultKey]*Result
	group   singleflight.Group
}

type resultKey struct {
	graph  *ir.Graph
	stack  *CallStack
	config string
	// Fingerprint of the initial state of interprocedural runs.
	seed string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		locs:     newLocationTable(),
		entities: NewEntityFactory(),
		results:  make(map[resultKey]*Result),
	}
}

// Entities returns the factory of the entities used in the cached results.
func (c *Cache) Entities() *EntityFactory { return c.entities }

// Len is the number of cached results, including interprocedural ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

func (c *Cache) lookup(k resultKey) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.results[k]
	return res, ok
}

func (c *Cache) store(k resultKey, res *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[k] = res
}

// nested returns the cached result for k or computes it on the calling
// goroutine. Concurrent computations of one nested key are not merged.
func (c *Cache) nested(k resultKey, compute func() (*Result, error)) (*Result, error) {
	if res, ok := c.lookup(k); ok {
		return res, nil
	}
	res, err := compute()
	if err != nil {
		return nil, err
	}
	c.store(k, res)
	return res, nil
}

// topLevel returns the result of analysing g from an empty state. Concurrent
// requests for the same key share one computation. A request whose context
// is live retries when the shared computation was cancelled by another
// requester.
func (c *Cache) topLevel(ctx context.Context, g *ir.Graph, cfg *AnalysisConfig) (*Result, error) {
	k := resultKey{graph: g, config: cfg.fingerprint()}
	for {
		if res, ok := c.lookup(k); ok {
			return res, nil
		}
		v, err, _ := c.group.Do(fmt.Sprintf("%p/%s", g, k.config), func() (any, error) {
			if res, ok := c.lookup(k); ok {
				return res, nil
			}
			res, err := newRun(ctx, cfg, g, nil).solve(NewAnalysisData())
			if err != nil {
				return nil, err
			}
			c.store(k, res)
			return res, nil
		})
		switch {
		case err == nil:
			return v.(*Result), nil
		case isContextError(err) && ctx.Err() == nil:
			continue
		default:
			return nil, err
		}
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
