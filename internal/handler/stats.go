package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// GetDistribution handles GET /ledgers/{ledger}/stats.
func (s *Server) GetDistribution(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.reports.Distribution(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DistributionResponse{Distribution: d, Total: d.Total()})
}

// ListBorrowerStats handles GET /ledgers/{ledger}/stats/borrowers.
func (s *Server) ListBorrowerStats(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := s.reports.BorrowerStats(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BorrowerStatsResponse{Data: nonNil(stats)})
}

// GetTrust handles GET /ledgers/{ledger}/stats/borrowers/{email}.
func (s *Server) GetTrust(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("email is not a valid path segment"))
		return
	}

	st, err := s.reports.Trust(r.Context(), sess, email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
