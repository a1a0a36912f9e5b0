package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/fdmsim/internal/config"
	"github.com/san-kum/fdmsim/internal/log"
)

// Ensemble flies independent sessions concurrently. Each session owns its
// orchestrator, model and recorder.
type Ensemble struct {
	reg    *Registry
	logger *log.Logger
	// Workers bounds the number of sessions in flight. Zero runs all at once.
	Workers int
}

func NewEnsemble(reg *Registry, logger *log.Logger) *Ensemble {
	return &Ensemble{reg: reg, logger: logger}
}

// Run flies every configuration and returns the results in the same order.
// The first error is returned after all sessions have finished.
func (e *Ensemble) Run(ctx context.Context, cfgs []*config.Config) ([]*Result, error) {
	results := make([]*Result, len(cfgs))
	errs := make([]error, len(cfgs))

	workers := e.Workers
	if workers <= 0 || workers > len(cfgs) {
		workers = len(cfgs)
	}
	sem := make(chan struct{}, max(workers, 1))

	var wg sync.WaitGroup
	for i, cfg := range cfgs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i], errs[i] = e.fly(ctx, cfg)
		}()
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return results, fmt.Errorf("session %d: %w", i, err)
		}
	}
	return results, nil
}

func (e *Ensemble) fly(ctx context.Context, cfg *config.Config) (*Result, error) {
	sess, err := Build(cfg, e.reg, e.logger)
	if err != nil {
		return nil, err
	}
	defer sess.Close()
	return sess.Run(ctx)
}
