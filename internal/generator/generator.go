package generator

import (
	"context"
	"errors"
	"fmt"

	"svw.info/watersort/internal/domain"
	"svw.info/watersort/internal/ports"
	"svw.info/watersort/internal/rng"
	"svw.info/watersort/internal/solver"
)

var (
	// ErrGenerationFailed means no solvable map came out of the try budget.
	ErrGenerationFailed = errors.New("generator: failed to produce a solvable map")
	// ErrInvalidParams means the puzzle shape violates the model limits.
	ErrInvalidParams = errors.New("generator: invalid params")
	// ErrTooManyGimmicks means more gimmicks were requested than bottles
	// that can carry them.
	ErrTooManyGimmicks = errors.New("generator: too many gimmicks requested")
	// ErrTooManyHidden means more hidden slots were requested than
	// non-top positions exist.
	ErrTooManyHidden = errors.New("generator: too many hidden slots requested")
)

const (
	maxBottles  = 30
	minCapacity = 3
	maxCapacity = 50
)

// Generator produces validated, scored puzzles for one Params/Options pair.
// It owns its RNG: a single instance is deterministic for a given seed and
// must not be shared between goroutines.
type Generator struct {
	p    domain.Params
	opt  *Options
	rng  *rng.RNG
	sv   ports.Solver
	base *domain.State
}

// New wires a generator. nil opt selects DefaultOptions.
func New(p domain.Params, opt *Options) *Generator {
	if opt == nil {
		opt = DefaultOptions()
	}
	seed := opt.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	return &Generator{
		p:   p,
		opt: opt,
		rng: rng.New(seed),
		sv:  solver.New(opt.SolveTime),
	}
}

// SetBase attaches a template state whose heights, gimmicks, and hidden
// slots steer subsequent starts. The generator keeps its own copy.
func (g *Generator) SetBase(base *domain.State) {
	if base == nil {
		g.base = nil
		return
	}
	g.base = base.Clone()
}

func (g *Generator) validateParams() error {
	p := g.p
	if p.NumColors < 1 || p.NumColors > domain.MaxPolicyColors {
		return fmt.Errorf("%w: numColors %d out of 1..%d", ErrInvalidParams, p.NumColors, domain.MaxPolicyColors)
	}
	if p.NumBottles < 1 || p.NumBottles > maxBottles {
		return fmt.Errorf("%w: numBottles %d out of 1..%d", ErrInvalidParams, p.NumBottles, maxBottles)
	}
	if p.Capacity < minCapacity || p.Capacity > maxCapacity {
		return fmt.Errorf("%w: capacity %d out of %d..%d", ErrInvalidParams, p.Capacity, minCapacity, maxCapacity)
	}
	if p.NumColors > p.NumBottles {
		return fmt.Errorf("%w: %d colors cannot fit in %d bottles", ErrInvalidParams, p.NumColors, p.NumBottles)
	}
	return nil
}

// MakeOne runs the generation attempt loop: build a start, scramble when
// configured, validate solvability, and score. The optional initial listing
// (bottom->top colors per bottle) overrides the start contents. Returns
// ErrGenerationFailed after the try budget is exhausted.
func (g *Generator) MakeOne(ctx context.Context, initial [][]domain.Color) (*domain.Generated, error) {
	if err := g.validateParams(); err != nil {
		return nil, err
	}
	for tries := 0; tries < g.opt.GimmickPlacementTries; tries++ {
		s := g.createStartFromInitial(initial)

		var mix int
		var trail []domain.Move
		var scrambleStart *domain.State
		if g.opt.StartMixed {
			// No separate scramble; record the rough mixing strength.
			mix = g.p.NumColors * g.p.Capacity
		} else {
			scrambleStart = s.Clone()
			trail = g.scramble(s)
			mix = len(trail)
		}

		if !s.IsSolved() && !hasAnyMove(s) {
			continue
		}

		res, _ := g.sv.Solve(ctx, s)
		if !res.Solved {
			continue
		}
		score := g.sv.EstimateDifficulty(s, &res)
		return &domain.Generated{
			State:         s,
			ScrambleStart: scrambleStart,
			MixCount:      mix,
			MinMoves:      res.MinMoves,
			DiffScore:     score,
			DiffLabel:     domain.LabelForScore(score),
			ScrambleMoves: trail,
			SolutionMoves: res.SolutionMoves,
			Difficulty:    res.Difficulty,
		}, nil
	}
	return nil, ErrGenerationFailed
}

// createStartFromInitial builds the state a generation attempt starts from.
func (g *Generator) createStartFromInitial(initial [][]domain.Color) *domain.State {
	if g.opt.StartMixed && initial == nil {
		if g.base != nil {
			return g.createRandomMixedFromHeights(g.base)
		}
		return g.createRandomMixedWithHeights(g.heights(), nil)
	}

	st := domain.Goal(g.p)
	if g.base != nil {
		// Template gimmicks and hidden flags over the goal arrangement;
		// colors come from the goal itself.
		for i := range st.B {
			if i >= len(g.base.B) {
				break
			}
			st.B[i].Gimmick = g.base.B[i].Gimmick
			for k, sl := range g.base.B[i].Slots {
				if sl.Hidden && k < len(st.B[i].Slots) {
					st.B[i].Slots[k].Hidden = true
				}
			}
		}
	}
	if initial != nil {
		for i := range st.B {
			if i >= len(initial) {
				break
			}
			st.B[i].Slots = st.B[i].Slots[:0]
			st.B[i].Capacity = g.p.Capacity
			for _, c := range initial[i] {
				st.B[i].Slots = append(st.B[i].Slots, domain.Slot{Color: c})
			}
		}
	}
	st.RefreshLocks()
	return st
}

// heights picks the per-bottle target heights used when no template
// dictates them.
func (g *Generator) heights() []int {
	if g.opt.RandomizeHeights {
		return g.randomHeights()
	}
	return g.defaultHeights()
}

// defaultHeights fills colors*capacity cells left to right.
func (g *Generator) defaultHeights() []int {
	heights := make([]int, g.p.NumBottles)
	need := g.p.NumColors * g.p.Capacity
	for i := range heights {
		take := need
		if take > g.p.Capacity {
			take = g.p.Capacity
		}
		heights[i] = take
		need -= take
	}
	return heights
}

// randomHeights distributes colors*capacity cells randomly over the
// bottles, keeping ReservedEmpty randomly chosen bottles empty when the
// remaining space allows it.
func (g *Generator) randomHeights() []int {
	n := g.p.NumBottles
	need := g.p.NumColors * g.p.Capacity

	reserved := g.opt.ReservedEmpty
	if reserved < 0 {
		reserved = 0
	}
	for reserved > 0 && (n-reserved)*g.p.Capacity < need {
		reserved--
	}
	fillable := make([]bool, n)
	for i := range fillable {
		fillable[i] = true
	}
	for k := 0; k < reserved; k++ {
		for tries := 0; tries < 64; tries++ {
			i := g.rng.Irange(0, n-1)
			if fillable[i] {
				fillable[i] = false
				break
			}
		}
	}

	heights := make([]int, n)
	for need > 0 {
		placed := false
		for tries := 0; tries < 64 && !placed; tries++ {
			i := g.rng.Irange(0, n-1)
			if fillable[i] && heights[i] < g.p.Capacity {
				heights[i]++
				need--
				placed = true
			}
		}
		if !placed {
			for i := 0; i < n && need > 0; i++ {
				if fillable[i] && heights[i] < g.p.Capacity {
					heights[i]++
					need--
				}
			}
		}
	}
	return heights
}

// hasAnyMove reports whether at least one legal pour exists.
func hasAnyMove(s *domain.State) bool {
	for i := range s.B {
		for j := range s.B {
			if i == j {
				continue
			}
			if _, ok := s.CanPour(i, j); ok {
				return true
			}
		}
	}
	return false
}
