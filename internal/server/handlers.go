package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/confops/sponsor-pipeline/internal/dedupe"
	"github.com/confops/sponsor-pipeline/internal/importer"
	"github.com/confops/sponsor-pipeline/internal/kb"
	"github.com/confops/sponsor-pipeline/internal/model"
	"github.com/confops/sponsor-pipeline/internal/research"
	"github.com/confops/sponsor-pipeline/internal/sponsor"
	"github.com/confops/sponsor-pipeline/pkg/linkedin"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDedupe(w http.ResponseWriter, r *http.Request) {
	engine := dedupe.NewEngine(s.store, s.cfg.Batch.WriteDelay, actor(r))
	report, err := engine.Run(r.Context())
	if err != nil {
		writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		dedupe.Report
	}{true, report})
}

func (s *Server) handleTagSponsors(w http.ResponseWriter, r *http.Request) {
	tagger := sponsor.NewTagger(s.store, s.roster, s.cfg.Batch.WriteDelay, actor(r))
	report, err := tagger.Run(r.Context())
	if err != nil {
		writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		sponsor.Report
	}{true, report})
}

func (s *Server) handleMergeDecisionMakers(w http.ResponseWriter, r *http.Request) {
	engine := dedupe.NewEngine(s.store, s.cfg.Batch.WriteDelay, actor(r))
	report, err := engine.MergeDecisionMakers(r.Context())
	if err != nil {
		writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		dedupe.Report
	}{true, report})
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	if s.ai == nil {
		writeError(w, http.StatusInternalServerError, "research is not configured")
		return
	}

	var req struct {
		Limit int `json:"limit"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	researcher := research.NewResearcher(s.store, s.ai, s.cfg.Anthropic.Model,
		s.cfg.Batch.WriteDelay, actor(r))
	report, err := researcher.Run(r.Context(), req.Limit)
	if err != nil {
		writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		research.Report
	}{true, report})
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var c model.Company
	if err := decodeBody(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(c.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if c.Status != "" && !c.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	c.CreatedBy = actor(r)
	if err := s.store.CreateCompany(r.Context(), &c); err != nil {
		writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool          `json:"success"`
		Company model.Company `json:"company"`
	}{true, c})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source    string `json:"source"`
		Charset   string `json:"charset"`
		Delimiter string `json:"delimiter"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Source == "" {
		writeError(w, http.StatusBadRequest, "source is required")
		return
	}

	opts := importer.Options{Source: req.Source, Charset: req.Charset}
	if req.Delimiter != "" {
		opts.Delimiter = rune(req.Delimiter[0])
	}

	imp := importer.New(s.store, s.cfg.Batch.WriteDelay, actor(r))
	report, err := imp.Run(r.Context(), opts)
	if err != nil {
		writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		importer.Report
	}{true, report})
}

func (s *Server) handleCreateTouch(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "id")

	var req struct {
		Channel string `json:"channel"`
		Summary string `json:"summary"`
		Outcome string `json:"outcome"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Channel == "" {
		writeError(w, http.StatusBadRequest, "channel is required")
		return
	}

	company, err := s.store.GetCompany(r.Context(), companyID)
	if err != nil {
		writeServerError(w, err)
		return
	}
	if company == nil {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}

	touch := model.Touch{
		CompanyID: companyID,
		Channel:   req.Channel,
		Summary:   req.Summary,
		Outcome:   req.Outcome,
	}
	if err := s.store.CreateTouch(r.Context(), &touch); err != nil {
		writeServerError(w, err)
		return
	}

	// A recognized outcome advances the pipeline stage, never regresses it.
	if implied, ok := model.StatusForOutcome(req.Outcome); ok {
		if advanced := company.Status.Advance(implied); advanced != company.Status {
			company.Status = advanced
			if err := s.store.UpdateCompany(r.Context(), company); err != nil {
				writeServerError(w, err)
				return
			}
		}
	}

	s.recordActivity(r, "touch", company.Name)
	writeJSON(w, http.StatusOK, struct {
		Success bool        `json:"success"`
		Touch   model.Touch `json:"touch"`
		Status  string      `json:"status"`
	}{true, touch, string(company.Status)})
}

func (s *Server) handleAddConnection(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "id")

	var conn model.AlumniConnection
	if err := decodeBody(r, &conn); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if conn.TeamMemberName == "" {
		writeError(w, http.StatusBadRequest, "team_member_name is required")
		return
	}

	company, err := s.store.GetCompany(r.Context(), companyID)
	if err != nil {
		writeServerError(w, err)
		return
	}
	if company == nil {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}

	added := false
	if !dedupe.HasConnectionFor(company.AlumniConnections, conn.TeamMemberName) {
		company.AlumniConnections = append(company.AlumniConnections, conn)
		if err := s.store.UpdateCompany(r.Context(), company); err != nil {
			writeServerError(w, err)
			return
		}
		added = true
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Added   bool `json:"added"`
	}{true, added})
}

func (s *Server) handleKBQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query        string `json:"query"`
		Limit        int    `json:"limit"`
		DocumentType string `json:"document_type"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	results, err := kb.NewSearcher(s.store).Query(r.Context(), req.Query, req.Limit, req.DocumentType)
	if err != nil {
		writeServerError(w, err)
		return
	}
	if results == nil {
		results = []kb.Result{}
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool        `json:"success"`
		Results []kb.Result `json:"results"`
	}{true, results})
}

func (s *Server) handleNetworkVerify(w http.ResponseWriter, r *http.Request) {
	if s.network == nil {
		writeError(w, http.StatusInternalServerError, "network verification is not configured")
		return
	}

	var req struct {
		Code        string `json:"code"`
		RedirectURI string `json:"redirect_uri"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" || req.RedirectURI == "" {
		writeError(w, http.StatusBadRequest, "code and redirect_uri are required")
		return
	}

	profile, ok, err := linkedin.Verify(r.Context(), s.network, req.Code, req.RedirectURI,
		s.cfg.Network.AllowedProfiles)
	if err != nil {
		writeServerError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusForbidden, "profile is not on the team allow list")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		Name    string `json:"name"`
		Email   string `json:"email"`
	}{true, profile.Name, profile.Email})
}

// recordActivity appends a feed entry; failures are non-fatal for the request.
func (s *Server) recordActivity(r *http.Request, action, detail string) {
	_ = s.store.CreateActivity(r.Context(), &model.Activity{
		Actor:  actor(r),
		Action: action,
		Detail: detail,
	})
}
