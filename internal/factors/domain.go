// Package factors manages the emission factor reference data used to convert
// activity quantities into kgCO2e.
package factors

import "time"

// Factor is one emission conversion coefficient, versioned by year.
type Factor struct {
	ID          int64     `json:"id"`
	Category    string    `json:"category"`
	Key         string    `json:"key"`
	Year        int       `json:"year"`
	Value       float64   `json:"value"`
	UnitMeasure string    `json:"unit_measure"`
	Source      string    `json:"source,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FactorSet indexes factors by category and key for one reporting year.
type FactorSet struct {
	Year  int
	byKey map[string]Factor
}

// NewFactorSet builds the lookup index for a year's factors.
func NewFactorSet(year int, items []Factor) FactorSet {
	byKey := make(map[string]Factor, len(items))
	for _, f := range items {
		byKey[f.Category+"/"+f.Key] = f
	}
	return FactorSet{Year: year, byKey: byKey}
}

// Lookup returns the factor for a category and key, if present.
func (s FactorSet) Lookup(category, key string) (Factor, bool) {
	f, ok := s.byKey[category+"/"+key]
	return f, ok
}

// Len reports how many factors the set holds.
func (s FactorSet) Len() int {
	return len(s.byKey)
}
