// Package classify maps free-text job titles to occupation codes from the
// reference taxonomy. Candidates are retrieved per role, batches of roles
// are sent to a text-generation model that may only choose among the
// listed candidates, and the response is validated before anything is
// returned. Every input role yields exactly one result: failures degrade
// to LOW-confidence fallback results instead of erroring out.
package classify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"rolemap/internal/taxonomy"
)

// Generator is the external text-generation contract: one blocking call
// per batch, no internal retries. Retrying is the agent's job.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type Config struct {
	BatchSize            int           // roles per classification call
	CandidatesPerRole    int           // retrieval fan-out cap
	RetrievalConcurrency int           // concurrent candidate searches
	BatchConcurrency     int           // concurrent classification calls
	Retries              int           // extra classification attempts per batch
	Timeout              time.Duration // per classification call
}

func DefaultConfig() Config {
	return Config{
		BatchSize:            12,
		CandidatesPerRole:    20,
		RetrievalConcurrency: 8,
		BatchConcurrency:     4,
		Retries:              2,
		Timeout:              60 * time.Second,
	}
}

// Agent orchestrates retrieval, batching, classification, validation and
// fallback. It is stateless across MapRoles calls.
type Agent struct {
	index taxonomy.Index
	gen   Generator
	cfg   Config
	log   *zap.Logger
}

func New(index taxonomy.Index, gen Generator, cfg Config, log *zap.Logger) (*Agent, error) {
	if index == nil {
		return nil, fmt.Errorf("%w: nil index", ErrBadConfig)
	}
	if gen == nil {
		return nil, fmt.Errorf("%w: nil generator", ErrBadConfig)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size %d", ErrBadConfig, cfg.BatchSize)
	}
	if cfg.CandidatesPerRole <= 0 {
		return nil, fmt.Errorf("%w: candidates per role %d", ErrBadConfig, cfg.CandidatesPerRole)
	}
	if cfg.RetrievalConcurrency <= 0 || cfg.BatchConcurrency <= 0 {
		return nil, fmt.Errorf("%w: concurrency must be positive", ErrBadConfig)
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("%w: negative retries", ErrBadConfig)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout %v", ErrBadConfig, cfg.Timeout)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Agent{index: index, gen: gen, cfg: cfg, log: log}, nil
}

// MapRoles maps each input role to exactly one Result, one per list
// position. Repeated role strings are processed independently. The only
// error it returns is cancellation; everything else degrades per role or
// per batch.
func (a *Agent) MapRoles(ctx context.Context, roles []string) ([]Result, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	items, err := a.retrieve(ctx, roles)
	if err != nil {
		return nil, err
	}

	batches := Chunk(items, a.cfg.BatchSize)
	perBatch := make([][]Result, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.BatchConcurrency)
	for i, batch := range batches {
		g.Go(func() error {
			res, err := a.classifyBatch(gctx, batch)
			if err != nil {
				return err
			}
			perBatch[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Cancelled call: completed batches are discarded, not returned.
		return nil, err
	}

	out := make([]Result, 0, len(roles))
	for _, res := range perBatch {
		out = append(out, res...)
	}
	return out, nil
}

// retrieve searches candidates for every role concurrently. A failed
// search degrades that role to an empty candidate set.
func (a *Agent) retrieve(ctx context.Context, roles []string) ([]Item, error) {
	items := make([]Item, len(roles))
	sem := semaphore.NewWeighted(int64(a.cfg.RetrievalConcurrency))
	g, gctx := errgroup.WithContext(ctx)
	for i, role := range roles {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			cands, err := a.index.Search(gctx, role, a.cfg.CandidatesPerRole)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				a.log.Warn("candidate retrieval failed, degrading to empty set",
					zap.Error(&RetrievalError{Role: role, Err: err}))
				cands = nil
			}
			items[i] = Item{Role: role, Candidates: dedupeByCode(cands)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

const backoffStep = 250 * time.Millisecond

// classifyBatch runs prompt -> generate -> parse for one batch. A failed
// call is retried cfg.Retries times with linear backoff; an unparseable
// response re-issues the same prompt once (the candidate sets are not
// re-retrieved). When everything is exhausted the whole batch falls back.
func (a *Agent) classifyBatch(ctx context.Context, batch []Item) ([]Result, error) {
	prompt := BuildPrompt(batch)
	classifyLeft := a.cfg.Retries
	parseLeft := 1

	for attempt := 1; ; attempt++ {
		raw, err := a.generate(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			cerr := &ClassificationError{Err: err}
			if classifyLeft > 0 {
				classifyLeft--
				a.log.Warn("classification call failed, retrying",
					zap.Int("attempt", attempt), zap.Error(cerr))
				if err := sleep(ctx, time.Duration(attempt)*backoffStep); err != nil {
					return nil, err
				}
				continue
			}
			a.log.Warn("classification failed, falling back",
				zap.Int("roles", len(batch)), zap.Error(cerr))
			return fallbackBatch(batch, reasonServiceError), nil
		}

		res, perr := parseResponse(raw, batch, a.log)
		if perr != nil {
			if parseLeft > 0 {
				parseLeft--
				a.log.Warn("unparseable response, re-issuing call", zap.Error(perr))
				continue
			}
			a.log.Warn("unparseable response, falling back", zap.Error(perr))
			return fallbackBatch(batch, reasonInvalidResponse), nil
		}
		return res, nil
	}
}

func (a *Agent) generate(ctx context.Context, prompt string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()
	return a.gen.Generate(cctx, systemInstruction, prompt)
}

// dedupeByCode keeps the first occurrence of each code, preserving rank.
// The input slice belongs to the index and may be shared or cached, so it
// is never modified; the result is always a copy.
func dedupeByCode(cands []taxonomy.Occupation) []taxonomy.Occupation {
	if len(cands) < 2 {
		return cands
	}
	seen := make(map[string]bool, len(cands))
	out := make([]taxonomy.Occupation, 0, len(cands))
	for _, c := range cands {
		if seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		out = append(out, c)
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
