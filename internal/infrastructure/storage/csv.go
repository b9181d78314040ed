package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"svw.info/watersort/internal/domain"
)

// header is the fixed boundary contract for the flat row format.
var header = []string{
	"index", "map", "slot_gimmick", "stack_gimmick",
	"NumberOfItem", "NumberOfSlot", "NumberOfStack",
	"MixCount", "MinMoves", "DifficultyScore", "DifficultyLabel",
}

// CSV persists generated puzzles as rows of the fixed 11-field layout.
type CSV struct{ path string }

func NewCSV(path string) *CSV { return &CSV{path: path} }

// Save writes the puzzles as rows, appending below the existing ones when
// appendIfExists is set and rewriting the file otherwise. Row indices
// continue from the existing row count on append.
func (s *CSV) Save(ctx context.Context, gens []*domain.Generated, appendIfExists bool) error {
	offset := 0
	exists := false
	if _, err := os.Stat(s.path); err == nil {
		exists = true
	}
	if appendIfExists && exists {
		rows, err := s.Load(ctx)
		if err != nil {
			return err
		}
		offset = len(rows)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendIfExists && exists {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(s.path, flags, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if !exists || !appendIfExists {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	for i, g := range gens {
		if err := ctx.Err(); err != nil {
			return err
		}
		mapField, err := EncodeMap(g.State)
		if err != nil {
			return fmt.Errorf("row %d: %w", offset+i, err)
		}
		rec := []string{
			strconv.Itoa(offset + i),
			mapField,
			EncodeSlotGimmick(g.State),
			EncodeStackGimmick(g.State),
			strconv.Itoa(g.State.P.NumColors),
			strconv.Itoa(g.State.P.Capacity),
			strconv.Itoa(g.State.P.NumBottles),
			strconv.Itoa(g.MixCount),
			strconv.Itoa(g.MinMoves),
			strconv.FormatFloat(g.DiffScore, 'f', -1, 64),
			g.DiffLabel,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Load reads every well-formed row back. Malformed rows are skipped, like
// the original tool does; solution paths are not part of the row format.
func (s *CSV) Load(ctx context.Context) ([]*domain.Generated, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	var out []*domain.Generated
	for i, rec := range records {
		if i == 0 || len(rec) < len(header) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		numColors, err1 := strconv.Atoi(rec[4])
		capacity, err2 := strconv.Atoi(rec[5])
		numBottles, err3 := strconv.Atoi(rec[6])
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		p := domain.Params{NumColors: numColors, NumBottles: numBottles, Capacity: capacity}
		mix, _ := strconv.Atoi(rec[7])
		minMoves, _ := strconv.Atoi(rec[8])
		score, _ := strconv.ParseFloat(rec[9], 64)

		out = append(out, &domain.Generated{
			State:     DecodeState(p, rec[1], rec[2], rec[3]),
			MixCount:  mix,
			MinMoves:  minMoves,
			DiffScore: score,
			DiffLabel: rec[10],
		})
	}
	return out, nil
}
