// ABOUTME: Dashboard stats endpoint and the admin-only workbook export
// ABOUTME: Snapshot aggregates come straight from the metrics service

package api

import (
	"fmt"
	"net/http"
	"time"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.stats.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleDashboardExport(w http.ResponseWriter, r *http.Request) {
	workbook, err := s.stats.ExportWorkload(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("workload-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(workbook); err != nil {
		s.logger.Error("failed to write export", "error", err)
	}
}
