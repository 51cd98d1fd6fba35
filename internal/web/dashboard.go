package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/dicri/internal/model"
)

const dashboardRecent = 10

// Dashboard handles GET /.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	var f model.ReportFilter

	stats, err := s.Engine.Statistics(r.Context(), actor(r), f)
	if err != nil {
		slog.Error("failed to load statistics for dashboard", "error", err)
		stats = &model.Statistics{}
	}
	recent, err := s.Engine.RecentCases(r.Context(), actor(r), f, dashboardRecent)
	if err != nil {
		slog.Error("failed to load recent cases for dashboard", "error", err)
	}

	total := 0
	for _, sc := range stats.ByState {
		total += sc.Count
	}

	s.Templates.Render(w, http.StatusOK, "dashboard.html", &struct {
		PageData
		Stats      *model.Statistics
		TotalCases int
		Recent     []model.Case
	}{
		PageData:   s.page(r, "Panel"),
		Stats:      stats,
		TotalCases: total,
		Recent:     recent,
	})
}
