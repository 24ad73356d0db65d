package types //nolint:revive // types is a valid package name

import "testing"

func TestHealthResponse_ToStatus(t *testing.T) {
	tests := []struct {
		name string
		in   HealthResponse
		want HealthStatus
	}{
		{
			name: "all up",
			in:   HealthResponse{Status: "ok", Database: "up", ChromaDB: "up", ServerTime: "t"},
			want: HealthStatus{Status: HealthHealthy, Database: ComponentOnline, ChromaDB: ComponentOnline, Timestamp: "t"},
		},
		{
			name: "degraded database",
			in:   HealthResponse{Status: "degraded", Database: "error: refused", ChromaDB: "up"},
			want: HealthStatus{Status: HealthDegraded, Database: ComponentOffline, ChromaDB: ComponentOnline},
		},
		{
			name: "unknown status",
			in:   HealthResponse{Status: "weird"},
			want: HealthStatus{Status: HealthDegraded, Database: ComponentOffline, ChromaDB: ComponentOffline},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.ToStatus()
			if *got != tt.want {
				t.Errorf("ToStatus() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestStatsResponse_ToStats(t *testing.T) {
	got := (&StatsResponse{TotalMissions: 42, CompletedMissions: 38, FailedMissions: 4}).ToStats()
	if got.InProgress != 0 {
		t.Errorf("InProgress = %d, want 0", got.InProgress)
	}
	if got.SuccessRate != 90.48 {
		t.Errorf("SuccessRate = %v, want 90.48", got.SuccessRate)
	}

	got = (&StatsResponse{TotalMissions: 10, CompletedMissions: 5, FailedMissions: 1}).ToStats()
	if got.InProgress != 4 {
		t.Errorf("InProgress = %d, want 4", got.InProgress)
	}

	got = (&StatsResponse{}).ToStats()
	if got.SuccessRate != 0 || got.InProgress != 0 {
		t.Errorf("empty stats = %+v, want zeros", got)
	}

	got = (&StatsResponse{TotalMissions: 1, CompletedMissions: 3}).ToStats()
	if got.InProgress != 0 {
		t.Errorf("InProgress = %d, want clamp to 0", got.InProgress)
	}
}
