// Package queryAndUpdate loads remote data twice: a fast uncertified query and
// a slower certified update. Both are issued together and reconciled so the
// caller sees the query result early and the certified one when it lands.
package queryAndUpdate

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type Strategy string

const (
	Strategy_Query          Strategy = "query"
	Strategy_Update         Strategy = "update"
	Strategy_QueryAndUpdate Strategy = "query_and_update"
)

// Request performs one call. certified selects an update call over a query.
type Request[R any] func(ctx context.Context, certified bool) (R, error)

type OnLoad[R any] func(result R, certified bool)

type OnError func(err error, certified bool)

// Runner tracks the latest request per key. Only results of the latest
// request are delivered, and once a certified result has been delivered a
// late uncertified result of the same request is dropped.
type Runner struct {
	strategy Strategy
	logger   *zap.Logger

	mu          sync.Mutex
	generations map[string]uint64
	certified   map[string]uint64
}

func NewRunner(strategy Strategy, l *zap.Logger) *Runner {
	if strategy == "" {
		strategy = Strategy_QueryAndUpdate
	}
	return &Runner{
		strategy:    strategy,
		logger:      l,
		generations: make(map[string]uint64),
		certified:   make(map[string]uint64),
	}
}

func (r *Runner) Strategy() Strategy {
	return r.strategy
}

func (r *Runner) begin(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations[key]++
	return r.generations[key]
}

// Invalidate drops every in-flight result for key.
func (r *Runner) Invalidate(key string) {
	r.begin(key)
}

// deliver runs fn while holding the lock if the result is still wanted.
// Callbacks therefore never interleave, and must not call Run themselves.
func (r *Runner) deliver(key string, generation uint64, certified bool, fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generations[key] != generation {
		return false
	}
	if !certified && r.certified[key] == generation {
		return false
	}
	if certified {
		r.certified[key] = generation
	}
	fn()
	return true
}

func (r *Runner) modes() []bool {
	switch r.strategy {
	case Strategy_Query:
		return []bool{false}
	case Strategy_Update:
		return []bool{true}
	default:
		return []bool{false, true}
	}
}

// Run issues the request according to the strategy and blocks until every
// call has returned. onLoad and onError may be nil.
func Run[R any](ctx context.Context, r *Runner, key string, request Request[R], onLoad OnLoad[R], onError OnError) {
	generation := r.begin(key)

	var wg sync.WaitGroup
	for _, certified := range r.modes() {
		wg.Add(1)
		go func(certified bool) {
			defer wg.Done()
			res, err := request(ctx, certified)

			if err != nil {
				delivered := r.deliverError(key, generation, certified, err, onError)
				if !delivered {
					r.logger.Sugar().Debugw("Dropped error of outdated request",
						zap.String("key", key),
						zap.Bool("certified", certified),
						zap.Error(err),
					)
				}
				return
			}

			delivered := r.deliver(key, generation, certified, func() {
				if onLoad != nil {
					onLoad(res, certified)
				}
			})
			if !delivered {
				r.logger.Sugar().Debugw("Dropped result of outdated request",
					zap.String("key", key),
					zap.Bool("certified", certified),
				)
			}
		}(certified)
	}
	wg.Wait()
}

func (r *Runner) deliverError(key string, generation uint64, certified bool, err error, onError OnError) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generations[key] != generation {
		return false
	}
	if !certified && r.certified[key] == generation {
		return false
	}
	if onError != nil {
		onError(err, certified)
	}
	return true
}
