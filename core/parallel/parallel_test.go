package parallel

import (
	"sync/atomic"
	"testing"
)

func TestParallelizeWorkersCoversEveryItem(t *testing.T) {
	tests := []struct {
		name    string
		items   int
		workers int
	}{
		{"zero items", 0, 4},
		{"single worker", 10, 1},
		{"more workers than items", 3, 8},
		{"uneven chunks", 101, 4},
		{"cpu default", 57, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make([]int32, tt.items)
			ParallelizeWorkers(tt.items, tt.workers, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&seen[i], 1)
				}
			})
			for i, n := range seen {
				if n != 1 {
					t.Errorf("item %d visited %d times", i, n)
				}
			}
		})
	}
}
