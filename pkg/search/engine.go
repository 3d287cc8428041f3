package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/monacohq/graphsense-REST/pkg/db/graph"
	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
	"github.com/monacohq/graphsense-REST/pkg/db/paging"
	"github.com/monacohq/graphsense-REST/pkg/metrics"
	"github.com/monacohq/graphsense-REST/pkg/utils"
	"go.uber.org/zap"
)

const (
	DefaultMaxDepth    = 7
	DefaultMaxBreadth  = 100
	DefaultParallelism = 1
)

// Config bounds the searches an Engine accepts and how much of each runs in
// parallel.
type Config struct {
	MaxDepth   int
	MaxBreadth int
	// Parallelism is the number of workers evaluating the start cluster's
	// edges. 1 evaluates them one after another.
	Parallelism int
}

// ConfigFromEnv reads SEARCH_MAX_DEPTH, SEARCH_MAX_BREADTH and SEARCH_PARALLELISM.
func ConfigFromEnv() Config {
	return Config{
		MaxDepth:    utils.EnvInt("SEARCH_MAX_DEPTH", DefaultMaxDepth),
		MaxBreadth:  utils.EnvInt("SEARCH_MAX_BREADTH", DefaultMaxBreadth),
		Parallelism: utils.EnvInt("SEARCH_PARALLELISM", DefaultParallelism),
	}
}

// Engine runs neighbor searches. One Engine serves every currency; its worker
// pool is shared across concurrent requests.
type Engine struct {
	cfg    Config
	logger *zap.Logger
	pool   pond.Pool
}

func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.MaxBreadth <= 0 {
		cfg.MaxBreadth = DefaultMaxBreadth
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultParallelism
	}

	e := &Engine{cfg: cfg, logger: logger.Named("search")}
	if cfg.Parallelism > 1 {
		e.pool = pond.NewPool(cfg.Parallelism)
	}
	e.logger.Info("Search engine configured",
		zap.Int("max_depth", cfg.MaxDepth),
		zap.Int("max_breadth", cfg.MaxBreadth),
		zap.Int("parallelism", cfg.Parallelism),
	)
	return e
}

// Close waits for in-flight work and releases the worker pool.
func (e *Engine) Close() {
	if e.pool != nil {
		e.pool.StopAndWait()
	}
}

// Validate rejects requests the engine will not run.
func (e *Engine) Validate(req Request) error {
	switch {
	case req.Direction != graphmodels.Incoming && req.Direction != graphmodels.Outgoing:
		return fmt.Errorf("%w: direction %q", ErrInvalidArgument, req.Direction)
	case req.Breadth < 1:
		return fmt.Errorf("%w: breadth must be at least 1, got %d", ErrInvalidArgument, req.Breadth)
	case req.Breadth > e.cfg.MaxBreadth:
		return fmt.Errorf("%w: breadth %d exceeds maximum %d", ErrInvalidArgument, req.Breadth, e.cfg.MaxBreadth)
	case req.Depth < 0:
		return fmt.Errorf("%w: depth must not be negative, got %d", ErrInvalidArgument, req.Depth)
	case req.Depth > e.cfg.MaxDepth:
		return fmt.Errorf("%w: depth %d exceeds maximum %d", ErrInvalidArgument, req.Depth, e.cfg.MaxDepth)
	}
	return nil
}

// Search returns the paths from req.Cluster to matching clusters, in the order
// the store lists the edges. Any store failure fails the whole search.
func (e *Engine) Search(ctx context.Context, src Source, req Request) ([]PathNode, error) {
	currency := src.Currency()
	if err := e.Validate(req); err != nil {
		metrics.SearchesTotal.WithLabelValues(currency, "invalid").Inc()
		return nil, err
	}

	start := time.Now()
	paths, err := e.level(ctx, src, req, req.Cluster, req.Depth, true)
	metrics.SearchDuration.WithLabelValues(currency).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SearchesTotal.WithLabelValues(currency, "error").Inc()
		return nil, fmt.Errorf("search from cluster %d: %w", req.Cluster, err)
	}
	if len(paths) == 0 {
		metrics.SearchesTotal.WithLabelValues(currency, "empty").Inc()
		return []PathNode{}, nil
	}

	metrics.SearchesTotal.WithLabelValues(currency, "matched").Inc()
	e.logger.Debug("Search finished",
		zap.String("currency", currency),
		zap.Uint64("cluster", req.Cluster),
		zap.Int("paths", len(paths)),
		zap.Duration("took", time.Since(start)),
	)
	return paths, nil
}

// level evaluates up to req.Breadth edges of cluster. Only the start cluster's
// edges go to the pool; deeper levels run inside the worker that reached them.
func (e *Engine) level(ctx context.Context, src Source, req Request, cluster uint64, depth int, root bool) ([]PathNode, error) {
	if depth <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := src.ClusterRelations(ctx, cluster, req.Direction, paging.Query{PageSize: req.Breadth}.WithLimit(req.Breadth))
	if err != nil {
		return nil, fmt.Errorf("relations of cluster %d: %w", cluster, err)
	}
	edges := page.Items
	if len(edges) > req.Breadth {
		edges = edges[:req.Breadth]
	}

	nodes := make([]*PathNode, len(edges))
	if root && e.pool != nil && len(edges) > 1 {
		group := e.pool.NewGroupContext(ctx)
		groupCtx := group.Context()
		for i, rel := range edges {
			group.SubmitErr(func() error {
				n, err := e.visit(groupCtx, src, req, rel, depth)
				if err != nil {
					return err
				}
				nodes[i] = n
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, rel := range edges {
			n, err := e.visit(ctx, src, req, rel, depth)
			if err != nil {
				return nil, err
			}
			nodes[i] = n
		}
	}

	var out []PathNode
	for _, n := range nodes {
		if n != nil {
			out = append(out, *n)
		}
	}
	return out, nil
}

// visit turns one edge into a path node, or nil when the branch is dropped.
func (e *Engine) visit(ctx context.Context, src Source, req Request, rel graphmodels.Relation, depth int) (*PathNode, error) {
	id, ok := graphmodels.ParseClusterID(rel.Neighbor(req.Direction)).Value()
	if !ok {
		return nil, nil
	}

	out, tags, err := e.evaluate(ctx, src, req, id, depth)
	if err != nil || out.kind == pruned {
		return nil, err
	}

	// Every related cluster must have a record.
	node, err := src.Cluster(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cluster %d: %w", id, err)
	}
	if tags == nil {
		if tags, err = src.ClusterTags(ctx, id); err != nil {
			return nil, fmt.Errorf("tags of cluster %d: %w", id, err)
		}
	}
	if tags == nil {
		tags = []graphmodels.Tag{}
	}
	node.Tags = tags

	pn := &PathNode{
		Node:              *node,
		Relation:          rel,
		MatchingAddresses: []graphmodels.Address{},
	}
	switch out.kind {
	case leaf:
		if pn.MatchingAddresses, err = resolveMatches(ctx, src, out.matches); err != nil {
			return nil, err
		}
	case subtree:
		pn.Paths = out.children
	}
	return pn, nil
}

// evaluate decides the outcome for neighbor cluster id. Tags fetched for the
// category test are returned so the node is not fetched twice.
func (e *Engine) evaluate(ctx context.Context, src Source, req Request, id uint64, depth int) (outcome, []graphmodels.Tag, error) {
	var tags []graphmodels.Tag
	matched := true
	if req.Category != "" {
		var err error
		if tags, err = src.ClusterTags(ctx, id); err != nil {
			return outcome{}, nil, fmt.Errorf("tags of cluster %d: %w", id, err)
		}
		if tags == nil {
			tags = []graphmodels.Tag{}
		}
		matched = graphmodels.HasCategory(tags, req.Category)
	}

	var owned []Candidate
	if req.Candidates != nil {
		owned = candidatesIn(req.Candidates, id)
		if !matched {
			matched = len(owned) > 0
		}
	}

	if matched {
		return outcome{kind: leaf, matches: owned}, tags, nil
	}

	children, err := e.level(ctx, src, req, id, depth-1, false)
	if err != nil {
		return outcome{}, nil, err
	}
	if len(children) == 0 {
		return outcome{kind: pruned}, nil, nil
	}
	return outcome{kind: subtree, children: children}, tags, nil
}

func candidatesIn(candidates []Candidate, cluster uint64) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if v, ok := c.Cluster.Value(); ok && v == cluster {
			out = append(out, c)
		}
	}
	return out
}

// resolveMatches loads each matching address with its tags. Addresses the
// store does not know are skipped.
func resolveMatches(ctx context.Context, src Source, matches []Candidate) ([]graphmodels.Address, error) {
	out := make([]graphmodels.Address, 0, len(matches))
	for _, m := range matches {
		addr, err := src.AddressWithTags(ctx, m.Address)
		if errors.Is(err, graph.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("address %s: %w", m.Address, err)
		}
		out = append(out, *addr)
	}
	return out, nil
}
