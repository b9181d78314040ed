package ports

import (
	"context"
	"time"

	"svw.info/watersort/internal/domain"
)

// Stats captures performance characteristics of an operation.
type Stats struct {
	Nodes    int
	Duration time.Duration
}

// Solver searches a start state for an optimal solution under a wall-clock
// budget and scores its difficulty.
type Solver interface {
	Solve(ctx context.Context, st *domain.State) (domain.SolveResult, Stats)
	EstimateDifficulty(st *domain.State, res *domain.SolveResult) float64
}

// Generator produces validated, scored puzzles. A Generator is not safe for
// concurrent use; parallel generation needs one instance per goroutine.
type Generator interface {
	SetBase(base *domain.State)
	BuildRandomTemplate(cloth, vine, bush, questionCount, questionMaxPerBottle int) (*domain.State, error)
	MakeOne(ctx context.Context, initial [][]domain.Color) (*domain.Generated, error)
}

// Validator performs structural invariant checks on a state.
type Validator interface {
	Validate(ctx context.Context, st *domain.State) (ok bool, conflicts []domain.Conflict, err error)
}

// Storage persists generated puzzles as flat CSV rows.
type Storage interface {
	Save(ctx context.Context, gens []*domain.Generated, appendIfExists bool) error
	Load(ctx context.Context) ([]*domain.Generated, error)
}
