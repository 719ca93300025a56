package server

import (
	"context"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ppm-finder/internal/catalog"
	"github.com/sells-group/ppm-finder/internal/guided"
	"github.com/sells-group/ppm-finder/internal/model"
	"github.com/sells-group/ppm-finder/internal/report"
	"github.com/sells-group/ppm-finder/internal/scorer"
)

// selection is the shared part of score and report requests. Criteria
// replaces the catalog criteria outright; Weights and the session's
// guided answers only adjust user ratings. Weights win over the session.
type selection struct {
	Criteria  []model.Criterion `json:"criteria,omitempty"`
	Weights   map[string]int    `json:"weights,omitempty"`
	ToolIDs   []string          `json:"toolIds,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
}

type scoreRequest struct {
	selection
	Variant string `json:"variant,omitempty"`
	Top     int    `json:"top,omitempty"`
}

type scoredEntry struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Rank       int     `json:"rank"`
	Percentage int     `json:"percentage"`
	RawScore   float64 `json:"rawScore"`
	MatchScore int     `json:"matchScore"`
}

type scoreResponse struct {
	Variant  scorer.Variant    `json:"variant"`
	Criteria []model.Criterion `json:"criteria"`
	Results  []scoredEntry     `json:"results"`
}

type reportRequest struct {
	selection
	Email string `json:"email,omitempty"`
}

type reportResponse struct {
	Report     *report.Report `json:"report"`
	HTML       string         `json:"html"`
	Dispatched bool           `json:"dispatched"`
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	tools, err := s.catalog.Tools(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog.Visible(tools))
}

func (s *Server) handleCriteria(w http.ResponseWriter, r *http.Request) {
	criteria, err := s.catalog.Criteria(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, criteria)
}

// resolve loads the tools and criteria a request selects.
func (s *Server) resolve(ctx context.Context, sel selection) ([]model.Tool, []model.Criterion, error) {
	tools, err := s.catalog.Tools(ctx)
	if err != nil {
		return nil, nil, err
	}
	tools = catalog.Select(catalog.Visible(tools), sel.ToolIDs)

	if err := checkCriteria(sel.Criteria); err != nil {
		return nil, nil, err
	}
	criteria := sel.Criteria
	if len(criteria) == 0 {
		if criteria, err = s.catalog.Criteria(ctx); err != nil {
			return nil, nil, err
		}
		if sel.SessionID != "" {
			sess, err := s.sessions.get(ctx, sel.SessionID)
			if err != nil {
				return nil, nil, err
			}
			criteria = guided.Apply(criteria, sess.guided.Answers(ctx))
		}
	}
	if len(sel.Weights) > 0 {
		criteria = guided.Apply(criteria, guided.Answers(sel.Weights))
	}
	return tools, criteria, nil
}

// checkCriteria rejects client-supplied criteria without an id or with a
// userRating outside 1..5. Weights are clamped instead, like guided answers.
func checkCriteria(criteria []model.Criterion) error {
	for i, c := range criteria {
		if c.ID == "" {
			return eris.Wrapf(errBadRequest, "criteria[%d]: id is required", i)
		}
		if c.UserRating < model.MinRating || c.UserRating > model.MaxRating {
			return eris.Wrapf(errBadRequest, "criteria[%d] %s: userRating %d outside %d..%d",
				i, c.ID, c.UserRating, model.MinRating, model.MaxRating)
		}
	}
	return nil
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	engine := s.engine
	if req.Variant != "" {
		v, err := scorer.ParseVariant(req.Variant)
		if err != nil {
			writeError(w, err)
			return
		}
		if v != engine.Variant() {
			engine = scorer.NewEngine(v, nil)
		}
	}

	tools, criteria, err := s.resolve(r.Context(), req.selection)
	if err != nil {
		writeError(w, err)
		return
	}
	ranked, err := engine.RankChecked(tools, criteria)
	if err != nil {
		writeError(w, err)
		return
	}
	ranked = scorer.TopN(ranked, req.Top)

	resp := scoreResponse{
		Variant:  engine.Variant(),
		Criteria: criteria,
		Results:  make([]scoredEntry, len(ranked)),
	}
	for i := range ranked {
		st := &ranked[i]
		resp.Results[i] = scoredEntry{
			ID:         st.Tool.ID,
			Name:       st.Tool.Name,
			Rank:       st.Rank,
			Percentage: st.Percentage,
			RawScore:   st.RawScore,
			MatchScore: engine.Score(&st.Tool, criteria).MatchScore,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx := r.Context()

	tools, criteria, err := s.resolve(ctx, req.selection)
	if err != nil {
		writeError(w, err)
		return
	}
	rep, err := s.builder.Build(ctx, tools, criteria)
	if err != nil {
		writeError(w, err)
		return
	}
	html, err := report.HTML(rep)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := reportResponse{Report: rep, HTML: html}
	if req.Email != "" {
		d, err := report.NewDelivery(rep, req.Email, s.fromEmail)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.dispatcher.Dispatch(ctx, d); err != nil {
			writeError(w, err)
			return
		}
		resp.Dispatched = true
		zap.L().Info("server: report dispatched", zap.String("report_id", rep.ID))
	}
	writeJSON(w, http.StatusOK, resp)
}
