package solver

import "svw.info/watersort/internal/domain"

// countOptimal counts the distinct optimal solutions of an already-solved
// start, up to maxSolutionCount, while the budget lasts. Paths are counted
// up to state equivalence: a state reached again at the same or a greater
// depth is folded.
func (e *engine) countOptimal(start *domain.State, res *domain.SolveResult) {
	best := make(map[uint64]int)
	count := 0
	limited, expired := false, false

	var dfs func(s *domain.State, d int)
	dfs = func(s *domain.State, d int) {
		if limited || expired {
			return
		}
		if !e.timeOk() {
			expired = true
			return
		}
		if s.IsSolved() {
			if d == res.MinMoves {
				count++
				if count >= maxSolutionCount {
					limited = true
				}
			}
			return
		}
		if d >= res.MinMoves {
			return
		}
		h := s.Hash()
		if pd, ok := best[h]; ok && pd <= d {
			return
		}
		best[h] = d
		e.nodes++
		for _, m := range orderedMoves(s) {
			child := s.Clone()
			child.Apply(m)
			dfs(child, d+1)
			if limited || expired {
				return
			}
		}
	}
	dfs(start, 0)

	if expired {
		res.TimedOut = true
	}
	res.SolutionCountLimited = limited
	res.SolutionCountExhaustive = !limited && !expired
	res.DistinctSolutions = count
	if !res.SolutionCountExhaustive && count < 1 {
		// One solution is certainly known: the one Solve just found.
		res.DistinctSolutions = 1
	}
}
