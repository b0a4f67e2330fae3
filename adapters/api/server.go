package api

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	internal "coexnet/internal"

	"coexnet/domain/preservation"
	"coexnet/ports"
)

// Server exposes stored preservation results read-only. The embedding
// application owns any further presentation; this surface is plain JSON.
type Server struct {
	repo ports.ResultRepository
	log  *internal.Logger
}

// NewServer creates a results API server over a result repository.
func NewServer(repo ports.ResultRepository) *Server {
	return &Server{repo: repo, log: internal.DefaultLogger}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{runID}/preservation", s.handlePreservationTable)
	return r
}

// ListenAndServe blocks serving the API on the given port.
func (s *Server) ListenAndServe(port string) error {
	s.log.Info("results API listening on :%s", port)
	return http.ListenAndServe(":"+port, s.Router())
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.repo.ListRuns(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"runs": runs})
}

// recordView is the JSON shape of one preservation record. NA scores render
// as null, never as zero.
type recordView struct {
	Module     int      `json:"module"`
	RefGroup   string   `json:"ref_group"`
	CompGroup  string   `json:"comp_group"`
	ZSummary   *float64 `json:"z_summary"`
	ModuleSize int      `json:"module_size"`
}

func (s *Server) handlePreservationTable(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	table, err := s.repo.LoadTable(r.Context(), runID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	views := make([]recordView, 0, len(table.Records))
	for _, rec := range table.Sorted() {
		views = append(views, toView(rec))
	}
	s.writeJSON(w, map[string]interface{}{"run_id": runID, "records": views})
}

func toView(rec preservation.Record) recordView {
	v := recordView{
		Module:     int(rec.Module),
		RefGroup:   rec.RefGroup,
		CompGroup:  rec.CompGroup,
		ModuleSize: rec.ModuleSize,
	}
	if !math.IsNaN(rec.ZSummary) {
		z := rec.ZSummary
		v.ZSummary = &z
	}
	return v
}

func (s *Server) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.log.Error("request failed: %v", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
