package generator

import "svw.info/watersort/internal/domain"

// scramble applies a reverse-move trail of random length in
// [MixMin, MixMax] to s and returns it. Pour legality is relaxed for
// generation only: the destination-color match is dropped, everything else
// (Vine, locks, space) still holds. The immediate undo of the previous move
// is excluded by (from, to) alone; amounts are not compared.
func (g *Generator) scramble(s *domain.State) []domain.Move {
	target := g.rng.Irange(g.opt.MixMin, g.opt.MixMax)
	var trail []domain.Move
	last := domain.Move{From: -1, To: -1}
	for step := 0; step < target; step++ {
		var mv []domain.Move
		for i := range s.B {
			for j := range s.B {
				if i == j {
					continue
				}
				amt, ok := canPourRelaxed(s, i, j)
				if !ok {
					continue
				}
				if last.From == j && last.To == i {
					continue
				}
				mv = append(mv, domain.Move{From: i, To: j, Amount: amt})
			}
		}
		if len(mv) == 0 {
			break
		}
		m := mv[g.rng.Irange(0, len(mv)-1)]
		s.Apply(m)
		trail = append(trail, m)
		last = m
	}
	return trail
}

// canPourRelaxed mirrors State.CanPour without the destination-color match.
func canPourRelaxed(s *domain.State, from, to int) (int, bool) {
	if from == to || from < 0 || to < 0 || from >= len(s.B) || to >= len(s.B) {
		return 0, false
	}
	bf := &s.B[from]
	bt := &s.B[to]
	if bf.Gimmick.Kind == domain.GimmickVine {
		return 0, false
	}
	if s.GimmickLocked(from) || s.GimmickLocked(to) {
		return 0, false
	}
	if bf.IsEmpty() || bt.IsFull() {
		return 0, false
	}
	if bf.TopColor() == 0 {
		return 0, false
	}
	amount := bf.TopChunk()
	if free := bt.Capacity - bt.Size(); free < amount {
		amount = free
	}
	if amount < 1 {
		return 0, false
	}
	return amount, true
}
