package solver

import (
	"context"
	"math"
	"time"

	"svw.info/watersort/internal/domain"
	"svw.info/watersort/internal/ports"
)

const (
	// DefaultBudget bounds a single solve when no budget is given.
	DefaultBudget = 2 * time.Second
	// maxSolutionCount caps the optimal-solution counting pass.
	maxSolutionCount = 4

	unreachable = math.MaxInt
)

// IDAStarSolver runs iterative-deepening A* with a groups-based heuristic,
// merge-first move ordering, and per-iteration transposition pruning, under
// a wall-clock budget. On success it also counts distinct optimal solutions
// up to a small cap.
type IDAStarSolver struct {
	budget time.Duration
}

// New returns a solver with the given wall-clock budget per Solve call.
// A non-positive budget selects DefaultBudget.
func New(budget time.Duration) *IDAStarSolver {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &IDAStarSolver{budget: budget}
}

// Solve never fails hard: an unsolvable or over-budget start comes back with
// Solved=false and the last completed lower bound in MinMoves.
func (sv *IDAStarSolver) Solve(ctx context.Context, start *domain.State) (domain.SolveResult, ports.Stats) {
	t0 := time.Now()
	res := domain.SolveResult{MinMoves: -1}

	// Hidden slots are a presentation concern; search runs on the revealed
	// state and any path found is valid on it.
	s := reveal(start)

	if s.IsSolved() {
		res.Solved = true
		res.MinMoves = 0
		res.DistinctSolutions = 1
		res.SolutionCountExhaustive = true
		return res, ports.Stats{Duration: time.Since(t0)}
	}

	e := &engine{ctx: ctx, deadline: t0.Add(sv.budget)}
	bound := heuristic(s)
	for {
		e.visited = make(map[uint64]struct{})
		e.path = e.path[:0]
		t := e.dfs(s, 0, bound)
		if t < 0 {
			res.Solved = true
			res.MinMoves = -t
			res.SolutionMoves = append([]domain.Move(nil), e.solution...)
			break
		}
		if t == unreachable || !e.timeOk() {
			res.TimedOut = !e.timeOk()
			res.MinMoves = bound
			return res, ports.Stats{Nodes: e.nodes, Duration: time.Since(t0)}
		}
		bound = t
	}

	e.countOptimal(s, &res)
	return res, ports.Stats{Nodes: e.nodes, Duration: time.Since(t0)}
}

type engine struct {
	ctx      context.Context
	deadline time.Time
	visited  map[uint64]struct{}
	path     []domain.Move
	solution []domain.Move
	nodes    int
}

func (e *engine) timeOk() bool {
	if e.ctx != nil && e.ctx.Err() != nil {
		return false
	}
	return time.Now().Before(e.deadline)
}

// dfs returns -g when a solution was found at depth g, the minimal f value
// that exceeded the bound, or unreachable on expiry or transposition.
func (e *engine) dfs(s *domain.State, g, bound int) int {
	f := g + heuristic(s)
	if f > bound {
		return f
	}
	if s.IsSolved() {
		e.solution = append(e.solution[:0], e.path...)
		return -g
	}
	if !e.timeOk() {
		return unreachable
	}
	h := s.Hash()
	if _, seen := e.visited[h]; seen {
		return unreachable
	}
	e.visited[h] = struct{}{}
	e.nodes++

	minNext := unreachable
	for _, m := range orderedMoves(s) {
		child := s.Clone()
		child.Apply(m)
		e.path = append(e.path, m)
		t := e.dfs(child, g+1, bound)
		e.path = e.path[:len(e.path)-1]
		if t < 0 {
			return t
		}
		if t < minNext {
			minNext = t
		}
		if !e.timeOk() {
			break
		}
	}
	return minNext
}

// orderedMoves returns every legal pour, with pours whose destination
// already holds the source's top color first. Merging usually solves
// faster.
func orderedMoves(s *domain.State) []domain.Move {
	var preferred, rest []domain.Move
	for i := range s.B {
		for j := range s.B {
			if i == j {
				continue
			}
			amt, ok := s.CanPour(i, j)
			if !ok {
				continue
			}
			m := domain.Move{From: i, To: j, Amount: amt}
			if !s.B[j].IsEmpty() && s.B[i].TopColor() == s.B[j].TopColor() {
				preferred = append(preferred, m)
			} else {
				rest = append(rest, m)
			}
		}
	}
	return append(preferred, rest...)
}

// heuristic estimates the remaining moves: each non-mono-full bottle counts
// max(1, groups-1) pours, minus credit for up to two empty bottles. It is
// not a strict lower bound: two partial bottles of one color that a single
// pour completes count one pour each.
func heuristic(s *domain.State) int {
	h, empty := 0, 0
	for i := range s.B {
		b := &s.B[i]
		if b.IsEmpty() {
			empty++
			continue
		}
		if b.IsMonoFull() {
			continue
		}
		g := groups(b)
		if g < 2 {
			h++
		} else {
			h += g - 1
		}
	}
	if empty > 2 {
		empty = 2
	}
	h -= empty
	if h < 0 {
		h = 0
	}
	return h
}

// groups counts the distinct adjacent color runs from bottom to top.
func groups(b *domain.Bottle) int {
	n := 0
	prev := domain.Color(0)
	for _, sl := range b.Slots {
		if sl.Color != prev {
			if sl.Color != 0 {
				n++
			}
			prev = sl.Color
		}
	}
	return n
}

// reveal clones the state with every hidden flag cleared.
func reveal(s *domain.State) *domain.State {
	out := s.Clone()
	for i := range out.B {
		for k := range out.B[i].Slots {
			out.B[i].Slots[k].Hidden = false
		}
	}
	out.RefreshLocks()
	return out
}
