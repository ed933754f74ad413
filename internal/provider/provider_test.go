package provider

import "testing"

func TestPlayerStats_GameCount(t *testing.T) {
	tests := []struct {
		name  string
		stats *PlayerStats
		want  int
	}{
		{"nil", nil, 0},
		{"empty", &PlayerStats{}, 0},
		{
			name: "summed across categories",
			stats: &PlayerStats{Records: map[string]Record{
				"chess_blitz": {Win: 10, Loss: 5, Draw: 1},
				"chess_daily": {Win: 2, Loss: 2, Draw: 0},
			}},
			want: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stats.GameCount(); got != tt.want {
				t.Errorf("GameCount() = %d, want %d", got, tt.want)
			}
		})
	}
}
