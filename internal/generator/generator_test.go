package generator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"svw.info/watersort/internal/domain"
	"svw.info/watersort/internal/solver"
)

func testParams() domain.Params {
	return domain.Params{NumColors: 3, NumBottles: 5, Capacity: 3}
}

func testOptions() *Options {
	opt := DefaultOptions()
	opt.Seed = 0xA17C3B5ECAFEBEEF
	opt.MixMin = 8
	opt.MixMax = 16
	opt.SolveTime = 2 * time.Second
	return opt
}

func colorCounts(st *domain.State) map[domain.Color]int {
	m := map[domain.Color]int{}
	for i := range st.B {
		for _, sl := range st.B[i].Slots {
			m[sl.Color]++
		}
	}
	return m
}

func TestMakeOneMixedStart(t *testing.T) {
	g := New(testParams(), testOptions())
	gen, err := g.MakeOne(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, gen.State)
	require.Nil(t, gen.ScrambleStart)
	require.Positive(t, gen.MinMoves)
	require.Len(t, gen.SolutionMoves, gen.MinMoves)
	require.Equal(t, domain.LabelForScore(gen.DiffScore), gen.DiffLabel)

	// Conservation: capacity copies of each color.
	counts := colorCounts(gen.State)
	for c := 1; c <= 3; c++ {
		require.Equal(t, 3, counts[domain.Color(c)], "color %d", c)
	}

	// No pre-solved stacks on a mixed start.
	for i := range gen.State.B {
		if gen.State.B[i].Gimmick.Kind == domain.GimmickVine {
			continue
		}
		require.False(t, gen.State.B[i].IsMonoFull(), "bottle %d pre-solved", i)
	}
}

func TestMakeOneIsDeterministic(t *testing.T) {
	a, err := New(testParams(), testOptions()).MakeOne(context.Background(), nil)
	require.NoError(t, err)
	b, err := New(testParams(), testOptions()).MakeOne(context.Background(), nil)
	require.NoError(t, err)

	require.Equal(t, a.State.Hash(), b.State.Hash())
	require.Equal(t, a.State, b.State)
	require.Equal(t, a.MinMoves, b.MinMoves)
	require.Equal(t, a.DiffScore, b.DiffScore)
	require.Equal(t, a.SolutionMoves, b.SolutionMoves)
}

func TestMakeOneResultIsReSolvable(t *testing.T) {
	g := New(testParams(), testOptions())
	gen, err := g.MakeOne(context.Background(), nil)
	require.NoError(t, err)

	res, _ := solver.New(4 * time.Second).Solve(context.Background(), gen.State)
	require.True(t, res.Solved)
	require.Equal(t, gen.MinMoves, res.MinMoves)
}

func TestMakeOneScramblePath(t *testing.T) {
	opt := testOptions()
	opt.StartMixed = false
	g := New(testParams(), opt)
	gen, err := g.MakeOne(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, gen.ScrambleStart)
	require.Equal(t, len(gen.ScrambleMoves), gen.MixCount)
	require.LessOrEqual(t, gen.MixCount, opt.MixMax)

	// The trail replays from the scramble start to the puzzle state.
	s := gen.ScrambleStart.Clone()
	for _, m := range gen.ScrambleMoves {
		s.Apply(m)
	}
	require.Equal(t, gen.State.Hash(), s.Hash())
}

func TestMakeOneInitialOverride(t *testing.T) {
	p := domain.Params{NumColors: 2, NumBottles: 4, Capacity: 3}
	opt := testOptions()
	opt.StartMixed = true
	g := New(p, opt)
	initial := [][]domain.Color{
		{1, 1, 2},
		{2, 2, 1},
		{},
		{},
	}
	gen, err := g.MakeOne(context.Background(), initial)
	require.NoError(t, err)
	require.Equal(t, domain.Color(1), gen.State.B[0].Slots[0].Color)
	require.Equal(t, domain.Color(2), gen.State.B[0].Slots[2].Color)
	require.True(t, gen.State.B[2].IsEmpty())
	require.Positive(t, gen.MinMoves)
}

func TestMakeOneDeadStartExhaustsTries(t *testing.T) {
	p := domain.Params{NumColors: 2, NumBottles: 2, Capacity: 3}
	g := New(p, testOptions())
	initial := [][]domain.Color{
		{1, 1, 2},
		{2, 2, 1},
	}
	_, err := g.MakeOne(context.Background(), initial)
	require.ErrorIs(t, err, ErrGenerationFailed)
}

func TestMakeOneRejectsBadParams(t *testing.T) {
	cases := []domain.Params{
		{NumColors: 0, NumBottles: 4, Capacity: 3},
		{NumColors: 19, NumBottles: 30, Capacity: 3},
		{NumColors: 2, NumBottles: 31, Capacity: 3},
		{NumColors: 2, NumBottles: 4, Capacity: 2},
		{NumColors: 2, NumBottles: 4, Capacity: 51},
		{NumColors: 5, NumBottles: 4, Capacity: 3},
	}
	for _, p := range cases {
		g := New(p, testOptions())
		_, err := g.MakeOne(context.Background(), nil)
		require.ErrorIs(t, err, ErrInvalidParams, "params %+v", p)
	}
}

func TestBuildRandomTemplate(t *testing.T) {
	p := domain.Params{NumColors: 4, NumBottles: 7, Capacity: 4}
	g := New(p, testOptions())
	tpl, err := g.BuildRandomTemplate(1, 1, 1, 3, 0)
	require.NoError(t, err)

	// Height sum carries the whole multiset.
	sum := 0
	for i := range tpl.B {
		sum += tpl.B[i].Size()
	}
	require.Equal(t, p.NumColors*p.Capacity, sum)

	var clothAt, vineAt, bushAt []int
	hidden := 0
	for i := range tpl.B {
		switch tpl.B[i].Gimmick.Kind {
		case domain.GimmickCloth:
			clothAt = append(clothAt, i)
			require.GreaterOrEqual(t, tpl.B[i].Gimmick.ClothTarget, domain.Color(1))
			require.LessOrEqual(t, tpl.B[i].Gimmick.ClothTarget, domain.Color(4))
		case domain.GimmickVine:
			vineAt = append(vineAt, i)
			// Vine bottles are forced mono.
			for _, sl := range tpl.B[i].Slots {
				require.Equal(t, tpl.B[i].Slots[0].Color, sl.Color)
			}
		case domain.GimmickBush:
			bushAt = append(bushAt, i)
		}
		for k, sl := range tpl.B[i].Slots {
			if sl.Hidden {
				hidden++
				require.NotEqual(t, tpl.B[i].Size()-1, k, "hidden on top of bottle %d", i)
			}
		}
	}
	require.Len(t, clothAt, 1)
	require.Len(t, vineAt, 1)
	require.Len(t, bushAt, 1)
	require.Equal(t, 3, hidden)
}

func TestBuildRandomTemplateRejectsOverfullRequests(t *testing.T) {
	p := domain.Params{NumColors: 2, NumBottles: 3, Capacity: 3}
	g := New(p, testOptions())

	_, err := g.BuildRandomTemplate(2, 1, 1, 0, 0)
	require.ErrorIs(t, err, ErrTooManyGimmicks)

	_, err = g.BuildRandomTemplate(0, 0, 0, 50, 0)
	require.ErrorIs(t, err, ErrTooManyHidden)

	_, err = g.BuildRandomTemplate(-1, 0, 0, 0, 0)
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestBuildRandomTemplateHiddenPerBottleCap(t *testing.T) {
	p := domain.Params{NumColors: 4, NumBottles: 6, Capacity: 4}
	g := New(p, testOptions())
	tpl, err := g.BuildRandomTemplate(0, 0, 0, 4, 1)
	require.NoError(t, err)
	for i := range tpl.B {
		n := 0
		for _, sl := range tpl.B[i].Slots {
			if sl.Hidden {
				n++
			}
		}
		require.LessOrEqual(t, n, 1, "bottle %d over the per-bottle cap", i)
	}
}

func TestMixedDealRespectsTemplate(t *testing.T) {
	p := domain.Params{NumColors: 4, NumBottles: 7, Capacity: 4}
	g := New(p, testOptions())
	tpl, err := g.BuildRandomTemplate(1, 0, 1, 2, 0)
	require.NoError(t, err)

	st := g.createRandomMixedFromHeights(tpl)

	// Heights, gimmicks, and hidden positions follow the template.
	for i := range st.B {
		require.Equal(t, tpl.B[i].Size(), st.B[i].Size(), "bottle %d height", i)
		require.Equal(t, tpl.B[i].Gimmick, st.B[i].Gimmick, "bottle %d gimmick", i)
		for k, sl := range tpl.B[i].Slots {
			if sl.Hidden {
				require.True(t, st.B[i].Slots[k].Hidden, "hidden flag lost at %d/%d", i, k)
			}
		}
	}

	// Conservation.
	counts := colorCounts(st)
	for c := 1; c <= p.NumColors; c++ {
		require.Equal(t, p.Capacity, counts[domain.Color(c)], "color %d", c)
	}

	// The Cloth bottle never starts with its own target inside.
	for i := range st.B {
		gm := st.B[i].Gimmick
		if gm.Kind != domain.GimmickCloth {
			continue
		}
		for _, sl := range st.B[i].Slots {
			require.NotEqual(t, gm.ClothTarget, sl.Color, "target color inside cloth bottle %d", i)
		}
	}

	// No pre-solved non-Vine stacks.
	require.False(t, hasPreSolvedStack(st))
}

func TestScrambleTrailReplays(t *testing.T) {
	opt := testOptions()
	opt.StartMixed = false
	g := New(testParams(), opt)

	s := g.createStartFromInitial(nil)
	require.True(t, s.IsSolved())
	before := s.Clone()

	trail := g.scramble(s)
	require.NotEmpty(t, trail)
	require.LessOrEqual(t, len(trail), opt.MixMax)

	replayed := before.Clone()
	for _, m := range trail {
		replayed.Apply(m)
	}
	require.Equal(t, s.Hash(), replayed.Hash())

	// No immediate undo by (from, to).
	for i := 1; i < len(trail); i++ {
		undo := trail[i].From == trail[i-1].To && trail[i].To == trail[i-1].From
		require.False(t, undo, "move %d undoes its predecessor", i)
	}
}

func TestRandomHeightsSumAndReserve(t *testing.T) {
	opt := testOptions()
	opt.RandomizeHeights = true
	g := New(testParams(), opt)
	heights := g.randomHeights()
	sum, empty := 0, 0
	for _, h := range heights {
		require.GreaterOrEqual(t, h, 0)
		require.LessOrEqual(t, h, 3)
		sum += h
		if h == 0 {
			empty++
		}
	}
	require.Equal(t, 9, sum)
	require.GreaterOrEqual(t, empty, 2)
}
