package generator

import (
	"fmt"

	"svw.info/watersort/internal/domain"
)

// BuildRandomTemplate constructs a template state: per-bottle heights, a
// throwaway color deal, the requested gimmicks on distinct bottles, and
// questionCount hidden slots on non-top positions.
// questionMaxPerBottle caps hidden slots per bottle (0 or negative =
// unlimited). The returned errors carry the reason a request cannot fit.
func (g *Generator) BuildRandomTemplate(cloth, vine, bush, questionCount, questionMaxPerBottle int) (*domain.State, error) {
	if err := g.validateParams(); err != nil {
		return nil, err
	}
	if cloth < 0 || vine < 0 || bush < 0 || questionCount < 0 {
		return nil, fmt.Errorf("%w: negative request", ErrInvalidParams)
	}

	heights := g.heights()

	st := &domain.State{P: g.p, B: make([]domain.Bottle, g.p.NumBottles)}
	for i := range st.B {
		st.B[i].Capacity = g.p.Capacity
	}
	// Template colors are placeholders: the mixed deal or the goal fill
	// replaces them. Only heights, gimmicks, and hidden positions matter.
	g.dealTemplateColors(st, heights)

	if err := g.assignGimmicks(st, heights, cloth, vine, bush); err != nil {
		return nil, err
	}
	if err := g.assignHidden(st, questionCount, questionMaxPerBottle); err != nil {
		return nil, err
	}

	st.RefreshLocks()
	return st, nil
}

// dealTemplateColors drops the full color multiset into the heights with no
// gimmick constraints.
func (g *Generator) dealTemplateColors(st *domain.State, heights []int) {
	bag := make([]domain.Color, 0, g.p.NumColors*g.p.Capacity)
	for c := 1; c <= g.p.NumColors; c++ {
		for k := 0; k < g.p.Capacity; k++ {
			bag = append(bag, domain.Color(c))
		}
	}
	for i := range bag {
		j := g.rng.Irange(0, len(bag)-1)
		bag[i], bag[j] = bag[j], bag[i]
	}
	for _, c := range bag {
		placed := false
		for tries := 0; tries < dealAttempts && !placed; tries++ {
			bi := g.rng.Irange(0, g.p.NumBottles-1)
			if st.B[bi].Size() < heights[bi] {
				st.B[bi].Slots = append(st.B[bi].Slots, domain.Slot{Color: c})
				placed = true
			}
		}
		if !placed {
			for bi := range st.B {
				if st.B[bi].Size() < heights[bi] {
					st.B[bi].Slots = append(st.B[bi].Slots, domain.Slot{Color: c})
					break
				}
			}
		}
	}
}

// assignGimmicks places the requested gimmicks on distinct non-empty
// bottles. Vine bottles are forced mono afterwards.
func (g *Generator) assignGimmicks(st *domain.State, heights []int, cloth, vine, bush int) error {
	total := cloth + vine + bush
	if total == 0 {
		return nil
	}
	var candidates []int
	for i, h := range heights {
		if h > 0 {
			candidates = append(candidates, i)
		}
	}
	if total > len(candidates) {
		return fmt.Errorf("%w: %d requested, %d fillable bottles", ErrTooManyGimmicks, total, len(candidates))
	}
	for i := range candidates {
		j := g.rng.Irange(0, len(candidates)-1)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}

	idx := 0
	for k := 0; k < cloth; k++ {
		target := domain.Color(g.rng.Irange(1, g.p.NumColors))
		st.B[candidates[idx]].Gimmick = domain.StackGimmick{Kind: domain.GimmickCloth, ClothTarget: target}
		idx++
	}
	for k := 0; k < vine; k++ {
		b := &st.B[candidates[idx]]
		b.Gimmick = domain.StackGimmick{Kind: domain.GimmickVine}
		// A vine bottle must hold a single color.
		if len(b.Slots) > 0 {
			fixed := b.Slots[0].Color
			for l := range b.Slots {
				b.Slots[l].Color = fixed
			}
		}
		idx++
	}
	for k := 0; k < bush; k++ {
		st.B[candidates[idx]].Gimmick = domain.StackGimmick{Kind: domain.GimmickBush}
		idx++
	}
	return nil
}

// assignHidden marks questionCount distinct non-top slots as hidden,
// uniformly over the remaining eligible positions.
func (g *Generator) assignHidden(st *domain.State, questionCount, maxPerBottle int) error {
	if questionCount == 0 {
		return nil
	}
	allowable := 0
	for i := range st.B {
		n := st.B[i].Size() - 1
		if n < 0 {
			n = 0
		}
		if maxPerBottle > 0 && n > maxPerBottle {
			n = maxPerBottle
		}
		allowable += n
	}
	if questionCount > allowable {
		return fmt.Errorf("%w: %d requested, %d non-top positions", ErrTooManyHidden, questionCount, allowable)
	}

	perBottle := make([]int, len(st.B))
	for placed := 0; placed < questionCount; placed++ {
		type pos struct{ bottle, slot int }
		var pool []pos
		for i := range st.B {
			if maxPerBottle > 0 && perBottle[i] >= maxPerBottle {
				continue
			}
			for k := 0; k < st.B[i].Size()-1; k++ {
				if !st.B[i].Slots[k].Hidden {
					pool = append(pool, pos{i, k})
				}
			}
		}
		if len(pool) == 0 {
			break
		}
		pick := pool[g.rng.Irange(0, len(pool)-1)]
		st.B[pick.bottle].Slots[pick.slot].Hidden = true
		perBottle[pick.bottle]++
	}
	return nil
}
