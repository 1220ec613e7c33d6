package store

import (
	"testing"
	"time"

	"github.com/devsashidhar/wander/contract"
)

func TestShouldNotify(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		last  *contract.LikeTracking
		count int
		want  bool
	}{
		{
			name:  "no prior record notifies",
			last:  nil,
			count: 3,
			want:  true,
		},
		{
			name:  "count moved and window passed",
			last:  &contract.LikeTracking{LastLikeCount: 2, LastNotificationDate: now.Add(-2 * time.Minute)},
			count: 3,
			want:  true,
		},
		{
			name:  "count unchanged",
			last:  &contract.LikeTracking{LastLikeCount: 3, LastNotificationDate: now.Add(-2 * time.Minute)},
			count: 3,
			want:  false,
		},
		{
			name:  "inside cooldown window",
			last:  &contract.LikeTracking{LastLikeCount: 2, LastNotificationDate: now.Add(-30 * time.Second)},
			count: 3,
			want:  false,
		},
		{
			name:  "window boundary",
			last:  &contract.LikeTracking{LastLikeCount: 2, LastNotificationDate: now.Add(-likeCooldown)},
			count: 3,
			want:  true,
		},
		{
			name:  "count dropped and window passed",
			last:  &contract.LikeTracking{LastLikeCount: 5, LastNotificationDate: now.Add(-2 * time.Minute)},
			count: 3,
			want:  true,
		},
		{
			// a dip back to the recorded value reads as unchanged
			name:  "count dipped and returned",
			last:  &contract.LikeTracking{LastLikeCount: 3, LastNotificationDate: now.Add(-time.Hour)},
			count: 3,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldNotify(tt.last, tt.count, now); got != tt.want {
				t.Errorf("shouldNotify() = %v, want %v", got, tt.want)
			}
		})
	}
}
