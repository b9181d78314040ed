package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"svw.info/watersort/internal/domain"
	"svw.info/watersort/internal/infrastructure/storage"
	"svw.info/watersort/internal/usecase"
)

type Handler struct {
	UC *usecase.Service
}

func New(uc *usecase.Service) *Handler { return &Handler{UC: uc} }

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/generate", h.handleGenerate)
	mux.HandleFunc("/api/solve", h.handleSolve)
	mux.HandleFunc("/api/validate", h.handleValidate)
}

// encodedState is the wire form of a puzzle state: the CSV boundary fields
// plus the shape.
type encodedState struct {
	Params       domain.Params `json:"params"`
	Map          string        `json:"map"`
	SlotGimmick  string        `json:"slot_gimmick"`
	StackGimmick string        `json:"stack_gimmick"`
}

func (e *encodedState) decode() *domain.State {
	return storage.DecodeState(e.Params, e.Map, e.SlotGimmick, e.StackGimmick)
}

func encodeState(st *domain.State) (encodedState, error) {
	m, err := storage.EncodeMap(st)
	if err != nil {
		return encodedState{}, err
	}
	return encodedState{
		Params:       st.P,
		Map:          m,
		SlotGimmick:  storage.EncodeSlotGimmick(st),
		StackGimmick: storage.EncodeStackGimmick(st),
	}, nil
}

// ---- Generate ----

type generateReq struct {
	Params  domain.Params `json:"params"`
	Seed    uint64        `json:"seed,omitempty"`
	Count   int           `json:"count,omitempty"`
	Workers int           `json:"workers,omitempty"`
}

type generatedPuzzle struct {
	encodedState
	MixCount  int     `json:"mixCount"`
	MinMoves  int     `json:"minMoves"`
	DiffScore float64 `json:"diffScore"`
	DiffLabel string  `json:"diffLabel"`
}

type generateResp struct {
	Puzzles []generatedPuzzle `json:"puzzles,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	var req generateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(generateResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.Count <= 0 {
		req.Count = 1
	}
	if req.Workers <= 0 {
		req.Workers = 1
	}
	gens, err := h.UC.GenerateBatch(r.Context(), req.Params, req.Seed, nil, req.Count, req.Workers)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(generateResp{Error: err.Error()})
		return
	}
	resp := generateResp{Puzzles: make([]generatedPuzzle, 0, len(gens))}
	for _, g := range gens {
		es, err := encodeState(g.State)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(generateResp{Error: err.Error()})
			return
		}
		resp.Puzzles = append(resp.Puzzles, generatedPuzzle{
			encodedState: es,
			MixCount:     g.MixCount,
			MinMoves:     g.MinMoves,
			DiffScore:    g.DiffScore,
			DiffLabel:    g.DiffLabel,
		})
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// ---- Solve ----

type solveReq struct {
	encodedState
	BudgetMs int `json:"budgetMs,omitempty"`
}

type solveResp struct {
	Result     domain.SolveResult `json:"result"`
	DurationMs int64              `json:"durationMs,omitempty"`
	Nodes      int                `json:"nodes,omitempty"`
	Error      string             `json:"error,omitempty"`
}

func (h *Handler) handleSolve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	var req solveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(solveResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	ctx := r.Context()
	if req.BudgetMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.BudgetMs)*time.Millisecond)
		defer cancel()
	}
	res, stats, err := h.UC.Solve(ctx, req.decode())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(solveResp{Error: err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(solveResp{
		Result:     res,
		DurationMs: stats.Duration.Milliseconds(),
		Nodes:      stats.Nodes,
	})
}

// ---- Validate ----

type validateResp struct {
	OK        bool              `json:"ok"`
	Conflicts []domain.Conflict `json:"conflicts,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	var req encodedState
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(validateResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	ok, conflicts, err := h.UC.Validate(r.Context(), req.decode())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(validateResp{Error: err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(validateResp{OK: ok, Conflicts: conflicts})
}
