package types

import "math"

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	Database   string `json:"database"`
	ChromaDB   string `json:"chromadb"`
	ServerTime string `json:"server_time"`
}

// Health states shown on the dashboard.
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
	HealthDown     = "down"

	ComponentOnline  = "online"
	ComponentOffline = "offline"
)

// HealthStatus is the dashboard view of backend health.
type HealthStatus struct {
	Status    string `json:"status" yaml:"status"`
	Database  string `json:"database" yaml:"database"`
	ChromaDB  string `json:"chromadb" yaml:"chromadb"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// ToStatus maps the backend health shape onto the dashboard shape.
// The backend reports "ok" for a healthy server and "up" for a healthy
// component; anything else is reported as degraded or offline.
func (h *HealthResponse) ToStatus() *HealthStatus {
	status := h.Status
	switch status {
	case "ok":
		status = HealthHealthy
	case HealthHealthy, HealthDegraded, HealthDown:
	default:
		status = HealthDegraded
	}
	return &HealthStatus{
		Status:    status,
		Database:  componentState(h.Database),
		ChromaDB:  componentState(h.ChromaDB),
		Timestamp: h.ServerTime,
	}
}

func componentState(s string) string {
	if s == "up" {
		return ComponentOnline
	}
	return ComponentOffline
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	TotalMissions     int64 `json:"total_missions"`
	CompletedMissions int64 `json:"completed_missions"`
	FailedMissions    int64 `json:"failed_missions"`
}

// MissionStats is the dashboard view of mission statistics.
type MissionStats struct {
	Total       int64   `json:"total" yaml:"total"`
	Completed   int64   `json:"completed" yaml:"completed"`
	Failed      int64   `json:"failed" yaml:"failed"`
	InProgress  int64   `json:"in_progress" yaml:"in_progress"`
	SuccessRate float64 `json:"success_rate" yaml:"success_rate"`
}

// ToStats derives in-progress count and success rate.
// The backend does not report in-progress missions; they are whatever is
// neither completed nor failed.
func (s *StatsResponse) ToStats() *MissionStats {
	out := &MissionStats{
		Total:     s.TotalMissions,
		Completed: s.CompletedMissions,
		Failed:    s.FailedMissions,
	}
	out.InProgress = max(0, out.Total-out.Completed-out.Failed)
	if out.Total > 0 {
		rate := float64(out.Completed) / float64(out.Total) * 100
		out.SuccessRate = math.Round(rate*100) / 100
	}
	return out
}
