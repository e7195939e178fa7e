// Package dispatch decides whether a generation request is cheap enough to
// run on the request path or must be handed to the background orchestrator.
package dispatch

import "levelforge/internal/domain"

// Mode is the routing outcome.
type Mode int

const (
	// Sync runs the generator inline and returns the level directly.
	Sync Mode = iota
	// Async hands the work to the orchestrator and returns a job id.
	Async
)

func (m Mode) String() string {
	if m == Async {
		return "async"
	}
	return "sync"
}

// Thresholds are the cost ceilings above which a request goes background.
type Thresholds struct {
	Tiles      int
	Entities   int
	Parameters int
}

// Router estimates request cost from the three configured dimensions.
type Router struct {
	t Thresholds
}

// New builds a Router. Non-positive thresholds disable that dimension.
func New(t Thresholds) *Router {
	return &Router{t: t}
}

// Decide routes a request. A request meeting or exceeding any threshold is
// Async: big maps must not block the calling connection. Everything else is
// Sync, where polling overhead would dominate the actual work.
func (r *Router) Decide(req domain.GenerationRequest) Mode {
	if r.t.Tiles > 0 && req.Width*req.Height >= r.t.Tiles {
		return Async
	}
	if r.t.Entities > 0 && req.EntityCount() >= r.t.Entities {
		return Async
	}
	if r.t.Parameters > 0 && len(req.Parameters) >= r.t.Parameters {
		return Async
	}
	return Sync
}
