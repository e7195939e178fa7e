package dispatch

import (
	"testing"

	"levelforge/internal/domain"
)

func TestDecide(t *testing.T) {
	r := New(Thresholds{Tiles: 10000, Entities: 500, Parameters: 12})

	tests := []struct {
		name string
		req  domain.GenerationRequest
		want Mode
	}{
		{
			name: "small map runs inline",
			req:  domain.GenerationRequest{Width: 20, Height: 20},
			want: Sync,
		},
		{
			name: "tile count at threshold goes background",
			req:  domain.GenerationRequest{Width: 100, Height: 100},
			want: Async,
		},
		{
			name: "entity count dominates",
			req: domain.GenerationRequest{
				Width: 10, Height: 10,
				Entities: []domain.EntitySpec{{Type: "goblin", Count: 300}, {Type: "chest", Count: 200}},
			},
			want: Async,
		},
		{
			name: "entities under threshold stay inline",
			req: domain.GenerationRequest{
				Width: 10, Height: 10,
				Entities: []domain.EntitySpec{{Type: "goblin", Count: 499}},
			},
			want: Sync,
		},
		{
			name: "parameter count dominates",
			req: domain.GenerationRequest{
				Width: 10, Height: 10,
				Parameters: map[string]any{
					"a": 1, "b": 2, "c": 3, "d": 4, "e": 5, "f": 6,
					"g": 7, "h": 8, "i": 9, "j": 10, "k": 11, "l": 12,
				},
			},
			want: Async,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Decide(tc.req); got != tc.want {
				t.Fatalf("Decide() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDecideDisabledThresholds(t *testing.T) {
	r := New(Thresholds{})
	req := domain.GenerationRequest{Width: 10000, Height: 10000}
	if got := r.Decide(req); got != Sync {
		t.Fatalf("all thresholds disabled should route Sync, got %v", got)
	}
}
