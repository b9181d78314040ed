package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"svw.info/watersort/internal/domain"
	"svw.info/watersort/internal/ports"
)

var errNotConfigured = errors.New("usecase dependency not configured")

// GeneratorFactory builds a fresh generator for the given shape and seed.
// Batch generation calls it once per worker: generators are not safe for
// concurrent use, so every goroutine needs its own instance.
type GeneratorFactory func(p domain.Params, seed uint64) ports.Generator

// Service wires the core components behind one entry point.
type Service struct {
	Solver       ports.Solver
	NewGenerator GeneratorFactory
	Validator    ports.Validator
	Storage      ports.Storage
	Logger       *slog.Logger
}

func NewService(s ports.Solver, gf GeneratorFactory, v ports.Validator, st ports.Storage, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Solver: s, NewGenerator: gf, Validator: v, Storage: st, Logger: logger}
}

func (u *Service) Solve(ctx context.Context, st *domain.State) (domain.SolveResult, ports.Stats, error) {
	if u.Solver == nil {
		return domain.SolveResult{}, ports.Stats{}, errNotConfigured
	}
	res, stats := u.Solver.Solve(ctx, st)
	return res, stats, nil
}

// EstimateDifficulty scores a state against an existing solve result.
func (u *Service) EstimateDifficulty(st *domain.State, res *domain.SolveResult) (float64, error) {
	if u.Solver == nil {
		return 0, errNotConfigured
	}
	return u.Solver.EstimateDifficulty(st, res), nil
}

func (u *Service) Validate(ctx context.Context, st *domain.State) (bool, []domain.Conflict, error) {
	if u.Validator == nil {
		return false, nil, errNotConfigured
	}
	return u.Validator.Validate(ctx, st)
}

// GenerateOne runs a single generation attempt loop on a fresh generator.
func (u *Service) GenerateOne(ctx context.Context, p domain.Params, seed uint64, base *domain.State) (*domain.Generated, error) {
	if u.NewGenerator == nil {
		return nil, errNotConfigured
	}
	g := u.NewGenerator(p, seed)
	if base != nil {
		g.SetBase(base)
	}
	return g.MakeOne(ctx, nil)
}

// GenerateBatch produces count puzzles across the given number of workers.
// Each worker owns a generator seeded from the caller's seed, the work is
// split statically, and results are handed off under a lock, so a batch is
// as reproducible as a single generator. Partial results are returned
// alongside the first worker error, if any.
func (u *Service) GenerateBatch(ctx context.Context, p domain.Params, seed uint64, base *domain.State, count, workers int) ([]*domain.Generated, error) {
	if u.NewGenerator == nil {
		return nil, errNotConfigured
	}
	if count <= 0 {
		return nil, nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > count {
		workers = count
	}

	job := uuid.NewString()
	u.Logger.Info("generation batch started", "job", job, "count", count, "workers", workers)

	var (
		mu     sync.Mutex
		byWork = make([][]*domain.Generated, workers)
		done   atomic.Int64
	)

	eg, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		share := count / workers
		if w < count%workers {
			share++
		}
		// Distinct per-worker seed, golden-ratio stepped from the caller's.
		workerSeed := seed + uint64(w)*0x9E3779B97F4A7C15
		eg.Go(func() error {
			g := u.NewGenerator(p, workerSeed)
			if base != nil {
				g.SetBase(base)
			}
			local := make([]*domain.Generated, 0, share)
			for k := 0; k < share; k++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				gen, err := g.MakeOne(ctx, nil)
				if err != nil {
					return err
				}
				local = append(local, gen)
				u.Logger.Debug("puzzle generated",
					"job", job,
					"worker", w,
					"completed", done.Add(1),
					"minMoves", gen.MinMoves,
					"score", gen.DiffScore,
					"label", gen.DiffLabel,
				)
			}
			mu.Lock()
			byWork[w] = local
			mu.Unlock()
			return nil
		})
	}
	err := eg.Wait()

	var out []*domain.Generated
	for _, part := range byWork {
		out = append(out, part...)
	}
	if err != nil {
		u.Logger.Warn("generation batch incomplete", "job", job, "completed", len(out), "err", err)
		return out, err
	}
	u.Logger.Info("generation batch finished", "job", job, "count", len(out))
	return out, nil
}

func (u *Service) Save(ctx context.Context, gens []*domain.Generated, appendIfExists bool) error {
	if u.Storage == nil {
		return errNotConfigured
	}
	return u.Storage.Save(ctx, gens, appendIfExists)
}

func (u *Service) Load(ctx context.Context) ([]*domain.Generated, error) {
	if u.Storage == nil {
		return nil, errNotConfigured
	}
	return u.Storage.Load(ctx)
}
