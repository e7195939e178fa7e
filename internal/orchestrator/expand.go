package orchestrator

import (
	"fmt"

	"levelforge/internal/domain"
)

// Limits bound the combinatorial size of a batch request.
type Limits struct {
	MaxTotalLevels        int
	MaxValuesPerVariation int
	MaxVariations         int
}

// BatchValidation is the outcome of a pre-flight batch check. It is safe
// to return to clients as-is.
type BatchValidation struct {
	Valid                 bool             `json:"is_valid"`
	Errors                []string         `json:"errors"`
	TotalLevels           int              `json:"total_levels"`
	VariationCombinations []map[string]any `json:"variation_combinations,omitempty"`
}

// CalculateTotalBatchLevels returns the product of the variation value
// counts. A variation without values counts as 1, so an empty variations
// list yields a single level.
func CalculateTotalBatchLevels(req domain.BatchRequest) int {
	total := 1
	for _, v := range req.Variations {
		if n := len(v.Values); n > 1 {
			total *= n
		}
	}
	return total
}

// ValidateBatchRequest is a pure pre-flight check: no job is registered
// and no state is touched.
func ValidateBatchRequest(req domain.BatchRequest, limits Limits) BatchValidation {
	var errs []string

	if req.BaseConfig.Width <= 0 || req.BaseConfig.Height <= 0 {
		errs = append(errs, "base config requires positive width and height")
	}
	if limits.MaxVariations > 0 && len(req.Variations) > limits.MaxVariations {
		errs = append(errs, fmt.Sprintf("too many variations: %d exceeds limit %d", len(req.Variations), limits.MaxVariations))
	}
	for i, v := range req.Variations {
		if v.Name == "" {
			errs = append(errs, fmt.Sprintf("variation %d has no parameter name", i))
		}
		if limits.MaxValuesPerVariation > 0 && len(v.Values) > limits.MaxValuesPerVariation {
			errs = append(errs, fmt.Sprintf("variation %q has %d values, limit is %d", v.Name, len(v.Values), limits.MaxValuesPerVariation))
		}
	}

	total := CalculateTotalBatchLevels(req)
	if limits.MaxTotalLevels > 0 && total > limits.MaxTotalLevels {
		errs = append(errs, fmt.Sprintf("batch expands to %d levels, limit is %d", total, limits.MaxTotalLevels))
	}

	out := BatchValidation{
		Valid:       len(errs) == 0,
		Errors:      errs,
		TotalLevels: total,
	}
	if out.Valid {
		out.VariationCombinations = ExpandCombinations(req.Variations)
	}
	return out
}

// ExpandCombinations produces the cartesian product of the variations in
// order. Variations without values contribute nothing to a combination.
func ExpandCombinations(variations []domain.Variation) []map[string]any {
	combos := []map[string]any{{}}
	for _, v := range variations {
		if len(v.Values) == 0 {
			continue
		}
		next := make([]map[string]any, 0, len(combos)*len(v.Values))
		for _, base := range combos {
			for _, val := range v.Values {
				combo := make(map[string]any, len(base)+1)
				for k, x := range base {
					combo[k] = x
				}
				combo[v.Name] = val
				next = append(next, combo)
			}
		}
		combos = next
	}
	return combos
}

// applyCombination copies the base configuration and overrides one
// parameter per combination entry. Width, height and seed are recognized
// as top-level fields; everything else lands in the parameter map.
func applyCombination(base domain.GenerationRequest, combo map[string]any) domain.GenerationRequest {
	req := base
	req.Parameters = make(map[string]any, len(base.Parameters)+len(combo))
	for k, v := range base.Parameters {
		req.Parameters[k] = v
	}
	for name, val := range combo {
		switch name {
		case "width":
			if n, ok := asInt(val); ok {
				req.Width = n
				continue
			}
		case "height":
			if n, ok := asInt(val); ok {
				req.Height = n
				continue
			}
		case "seed":
			if n, ok := asInt(val); ok {
				req.Seed = int64(n)
				continue
			}
		}
		req.Parameters[name] = val
	}
	return req
}

// asInt coerces JSON numbers, which decode as float64.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
