package solver

import (
	"math"

	"svw.info/watersort/internal/domain"
)

// EstimateDifficulty scores a start state from structural features and the
// solve result. The per-component breakdown is written into res.Difficulty
// and the clamped composite score in [0, 100] is returned. It is a pure
// function of (st, res).
func (sv *IDAStarSolver) EstimateDifficulty(st *domain.State, res *domain.SolveResult) float64 {
	p := st.P
	d := &res.Difficulty

	empties, monoFull := 0, 0
	for i := range st.B {
		if st.B[i].IsEmpty() {
			empties++
		} else if st.B[i].IsMonoFull() {
			monoFull++
		}
	}

	// Moves relative to a rough expectation for the shape.
	expected := float64(p.NumColors*p.Capacity) * 1.1
	m := float64(res.MinMoves)
	if m < 0 {
		m = 0
	}
	d.MoveComponent = clamp(math.Pow(math.Max(0, m/expected), 1.35)*40, 0, 45)

	h0 := float64(heuristic(st))
	d.HeuristicComponent = math.Min(18, math.Pow(math.Max(0, h0), 1.12)*1.15)

	frag := 0.0
	for i := range st.B {
		if g := groups(&st.B[i]); g > 1 {
			frag += float64(g - 1)
		}
	}
	d.FragmentationComponent = math.Min(10, frag*0.9)

	d.HiddenComponent = hiddenComponent(st)

	switch empties {
	case 0:
		d.EmptyBottleComponent = 0
	case 1:
		d.EmptyBottleComponent = -5
	case 2:
		d.EmptyBottleComponent = -12
	default:
		d.EmptyBottleComponent = -22
	}

	d.SolvedBottleComponent = -math.Min(8, float64(monoFull)*1.5)

	d.GimmickComponent = gimmickComponent(st, empties)

	// Hidden slots on gimmicked bottles would otherwise count twice.
	d.HiddenGimmickInteraction = -0.45 * math.Min(d.HiddenComponent, d.GimmickComponent)

	d.ColorComponent = math.Min(7, math.Max(0, float64(p.NumColors-5))*1.2)

	d.SolutionComponent = solutionComponent(res)

	total := d.MoveComponent + d.HeuristicComponent + d.FragmentationComponent +
		d.HiddenComponent + d.EmptyBottleComponent + d.SolvedBottleComponent +
		d.GimmickComponent + d.HiddenGimmickInteraction + d.ColorComponent +
		d.SolutionComponent
	total = clamp(total, 0, 100)
	if empties >= 3 && total >= 25 {
		// Hard ceiling: a board with that many spares cannot be Normal.
		total = 24.9
	}
	d.TotalScore = total
	return total
}

// hiddenComponent maps the "effective hidden groups" of the board through a
// linear ramp, plus an exponential bonus when several bottles carry hidden
// slots. Saturates at 14.
func hiddenComponent(st *domain.State) float64 {
	const rampFree, rampCap = 1.5, 6.5

	eff := 0.0
	bottlesWithHidden := 0
	for i := range st.B {
		b := &st.B[i]
		if b.IsEmpty() {
			continue
		}
		hiddenCount := 0
		known := map[domain.Color]struct{}{}
		for _, sl := range b.Slots {
			if sl.Hidden {
				hiddenCount++
			} else {
				known[sl.Color] = struct{}{}
			}
		}
		if hiddenCount == 0 {
			continue
		}
		bottlesWithHidden++
		per := 1.0
		extra := float64(hiddenCount - 1)
		if len(known) <= 1 {
			per += extra * 0.35
		} else {
			per += extra * 0.6
		}
		eff += per
	}
	if bottlesWithHidden == 0 {
		return 0
	}

	base := clamp((eff-rampFree)/(rampCap-rampFree), 0, 1) * 8
	bonus := 0.0
	if bottlesWithHidden >= 2 {
		bonus = (math.Exp(float64(bottlesWithHidden-1)*0.5) - 1) * 1.9
	}
	return math.Min(14, base+bonus)
}

// gimmickComponent turns per-bottle gimmick pressure into a saturating
// score with step bonuses per gimmick count, discounted by spare bottles.
func gimmickComponent(st *domain.State, empties int) float64 {
	pressure := 0.0
	gimmicks := 0
	for i := range st.B {
		b := &st.B[i]
		var w float64
		switch b.Gimmick.Kind {
		case domain.GimmickCloth:
			w = 0.70
		case domain.GimmickVine:
			w = 1.00
		case domain.GimmickBush:
			w = 0.85
		default:
			continue
		}
		gimmicks++
		fill := 0.5 + math.Min(1, float64(b.Size())/float64(b.Capacity))*0.5
		pressure += w * fill
	}
	if gimmicks == 0 {
		return 0
	}

	norm := pressure / float64(len(st.B))
	gc := (1 - math.Exp(-math.Pow(norm, 1.12)*3.4)) * 22
	if gimmicks >= 1 {
		gc += 4
	}
	if gimmicks >= 2 {
		gc += 3
	}
	if gimmicks >= 3 {
		gc += 2
	}
	gc -= math.Min(1.5, float64(empties)*0.5)
	return clamp(gc, 0, 30)
}

func solutionComponent(res *domain.SolveResult) float64 {
	switch {
	case res.SolutionCountExhaustive && res.DistinctSolutions == 1:
		return 6
	case res.SolutionCountExhaustive && res.DistinctSolutions == 2:
		return 2.5
	case res.SolutionCountExhaustive && res.DistinctSolutions >= 3:
		return -4
	case res.SolutionCountLimited || res.DistinctSolutions >= 3:
		return -3
	case !res.TimedOut && res.DistinctSolutions == 1:
		return 3
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
