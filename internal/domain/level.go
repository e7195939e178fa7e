package domain

// EntitySpec asks the generator to place Count entities of a given type.
type EntitySpec struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// GenerationRequest is a single level-generation configuration. It is
// immutable once accepted; batch expansion copies it per combination.
type GenerationRequest struct {
	Name       string         `json:"name,omitempty"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Seed       int64          `json:"seed"`
	Algorithm  string         `json:"algorithm"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Entities   []EntitySpec   `json:"entities,omitempty"`
}

// EntityCount sums the requested entity counts.
func (r GenerationRequest) EntityCount() int {
	total := 0
	for _, e := range r.Entities {
		total += e.Count
	}
	return total
}

// Variation names one parameter and the candidate values a batch should
// try for it. Order matters: combinations are expanded in variation order.
type Variation struct {
	Name   string `json:"name"`
	Values []any  `json:"values"`
}

// BatchRequest expands a base configuration across the cartesian product
// of its variations.
type BatchRequest struct {
	SessionID  string            `json:"session_id"`
	BaseConfig GenerationRequest `json:"base_config"`
	Variations []Variation       `json:"variations"`
}

// Level is the generated output. The generation algorithm itself lives
// behind the generator seam; this type only needs enough shape for the
// synchronous response path.
type Level struct {
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Seed      int64          `json:"seed"`
	Algorithm string         `json:"algorithm"`
	Tiles     [][]int        `json:"tiles"`
	Entities  []PlacedEntity `json:"entities,omitempty"`
}

// PlacedEntity is one entity positioned on the generated grid.
type PlacedEntity struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}
