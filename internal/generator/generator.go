// Package generator is the seam to the level-generation algorithms. The
// orchestrator and handlers only see the interface; the real algorithms
// live elsewhere.
package generator

import (
	"context"
	"fmt"
	"math/rand"

	"levelforge/internal/domain"
)

// Generator produces one level from an accepted configuration.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Level, error)
}

// Static is a deterministic in-process generator used for wiring and
// tests. Same seed, same level.
type Static struct{}

// NewStatic returns a Static generator.
func NewStatic() *Static {
	return &Static{}
}

// Generate fills a grid pseudo-randomly from the request seed and places
// the requested entities. It honors context cancellation between rows.
func (s *Static) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Level, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidRequest)
	}

	rng := rand.New(rand.NewSource(req.Seed))
	tiles := make([][]int, req.Height)
	for y := range tiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := make([]int, req.Width)
		for x := range row {
			row[x] = rng.Intn(4)
		}
		tiles[y] = row
	}

	var placed []domain.PlacedEntity
	for _, spec := range req.Entities {
		for i := 0; i < spec.Count; i++ {
			placed = append(placed, domain.PlacedEntity{
				Type: spec.Type,
				X:    rng.Intn(req.Width),
				Y:    rng.Intn(req.Height),
			})
		}
	}

	return &domain.Level{
		Width:     req.Width,
		Height:    req.Height,
		Seed:      req.Seed,
		Algorithm: req.Algorithm,
		Tiles:     tiles,
		Entities:  placed,
	}, nil
}
