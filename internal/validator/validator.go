package validator

import (
	"context"
	"fmt"

	"svw.info/watersort/internal/domain"
)

// StructuralValidator performs fast invariant checks on a state: shape
// agreement with Params, color ranges, conservation of the color multiset,
// and lock arrays consistent with the contents.
type StructuralValidator struct{}

func New() *StructuralValidator { return &StructuralValidator{} }

func (v *StructuralValidator) Validate(ctx context.Context, st *domain.State) (bool, []domain.Conflict, error) {
	conf := make([]domain.Conflict, 0, 8)

	if len(st.B) != st.P.NumBottles {
		conf = append(conf, domain.Conflict{Bottle: -1, Slot: -1,
			Reason: fmt.Sprintf("state has %d bottles, params say %d", len(st.B), st.P.NumBottles)})
	}

	counts := make(map[domain.Color]int)
	for i := range st.B {
		b := &st.B[i]
		if b.Capacity != st.P.Capacity {
			conf = append(conf, domain.Conflict{Bottle: i, Slot: -1,
				Reason: fmt.Sprintf("capacity %d, params say %d", b.Capacity, st.P.Capacity)})
		}
		if b.Size() > b.Capacity {
			conf = append(conf, domain.Conflict{Bottle: i, Slot: -1,
				Reason: fmt.Sprintf("%d slots exceed capacity %d", b.Size(), b.Capacity)})
		}
		for k, sl := range b.Slots {
			if sl.Color < 1 || int(sl.Color) > st.P.NumColors {
				conf = append(conf, domain.Conflict{Bottle: i, Slot: k,
					Reason: fmt.Sprintf("color %d out of palette 1..%d", sl.Color, st.P.NumColors)})
				continue
			}
			counts[sl.Color]++
		}
		if g := b.Gimmick; g.Kind == domain.GimmickCloth {
			if g.ClothTarget < 1 || int(g.ClothTarget) > st.P.NumColors {
				conf = append(conf, domain.Conflict{Bottle: i, Slot: -1,
					Reason: fmt.Sprintf("cloth target %d out of palette", g.ClothTarget)})
			}
		}
	}

	for c := 1; c <= st.P.NumColors; c++ {
		if n := counts[domain.Color(c)]; n != st.P.Capacity {
			conf = append(conf, domain.Conflict{Bottle: -1, Slot: -1,
				Reason: fmt.Sprintf("color %d appears %d times, want %d", c, n, st.P.Capacity)})
		}
	}

	// Lock arrays must match a from-scratch recomputation.
	want := st.Clone()
	want.RefreshLocks()
	if len(st.Locks.BushLocked) != len(st.B) || len(st.Locks.ClothLocked) != len(st.B) {
		conf = append(conf, domain.Conflict{Bottle: -1, Slot: -1, Reason: "lock arrays do not cover all bottles"})
	} else {
		for i := range st.B {
			if st.Locks.BushLocked[i] != want.Locks.BushLocked[i] || st.Locks.ClothLocked[i] != want.Locks.ClothLocked[i] {
				conf = append(conf, domain.Conflict{Bottle: i, Slot: -1, Reason: "stale gimmick lock"})
			}
		}
	}

	return len(conf) == 0, conf, nil
}
