package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"homeline/internal/automation"
)

func ruleIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// reconcileSchedules re-syncs cron entries after a rule mutation, before
// the response goes out, so a created interval rule is armed by the time
// the client hears about it.
func (s *Server) reconcileSchedules(r *http.Request) {
	if s.scheduler == nil {
		return
	}
	if err := s.scheduler.Reconcile(r.Context()); err != nil {
		s.logger.Error("schedule reconcile after rule mutation failed", "error", err)
	}
}

// handleListRules returns all automation rules.
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.rules.List(r.Context())
	if err != nil {
		s.logger.Error("listing rules failed", "error", err)
		writeInternalError(w, "failed to list automations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"automations": rules, "count": len(rules)})
}

// handleGetRule returns a single rule by ID.
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid automation id")
		return
	}

	rule, err := s.rules.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// handleCreateRule creates an automation rule.
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule automation.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if rule.OwnerID == 0 {
		rule.OwnerID = s.actorID
	}

	if err := automation.Validate(&rule); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.rules.Create(r.Context(), &rule); err != nil {
		writeDomainError(w, err)
		return
	}

	s.reconcileSchedules(r)
	writeJSON(w, http.StatusCreated, rule)
}

// handleUpdateRule replaces a rule. The ID comes from the path.
func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid automation id")
		return
	}

	var rule automation.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	rule.ID = id

	if err := automation.Validate(&rule); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.rules.Update(r.Context(), &rule); err != nil {
		writeDomainError(w, err)
		return
	}

	s.reconcileSchedules(r)
	writeJSON(w, http.StatusOK, rule)
}

// handleDeleteRule removes a rule.
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid automation id")
		return
	}

	if err := s.rules.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	s.reconcileSchedules(r)
	w.WriteHeader(http.StatusNoContent)
}

// handleSetRuleEnabled flips a rule's enabled flag.
func (s *Server) handleSetRuleEnabled(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid automation id")
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.rules.SetEnabled(r.Context(), id, req.Enabled); err != nil {
		writeDomainError(w, err)
		return
	}

	s.reconcileSchedules(r)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "enabled": req.Enabled})
}
