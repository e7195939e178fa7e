package generator

import (
	"context"
	"errors"
	"testing"

	"levelforge/internal/domain"
)

func TestStaticGenerateIsDeterministic(t *testing.T) {
	g := NewStatic()
	req := domain.GenerationRequest{
		Width: 16, Height: 12, Seed: 42, Algorithm: "cave",
		Entities: []domain.EntitySpec{{Type: "goblin", Count: 3}},
	}

	a, err := g.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := g.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(a.Tiles) != 12 || len(a.Tiles[0]) != 16 {
		t.Fatalf("grid = %dx%d, want 16x12", len(a.Tiles[0]), len(a.Tiles))
	}
	if len(a.Entities) != 3 {
		t.Fatalf("entities = %d, want 3", len(a.Entities))
	}
	for y := range a.Tiles {
		for x := range a.Tiles[y] {
			if a.Tiles[y][x] != b.Tiles[y][x] {
				t.Fatalf("tile (%d,%d) differs across runs with the same seed", x, y)
			}
		}
	}
}

func TestStaticGenerateRejectsZeroDimensions(t *testing.T) {
	g := NewStatic()
	if _, err := g.Generate(context.Background(), domain.GenerationRequest{Width: 0, Height: 5}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestStaticGenerateHonorsCancellation(t *testing.T) {
	g := NewStatic()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.Generate(ctx, domain.GenerationRequest{Width: 4, Height: 4}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
