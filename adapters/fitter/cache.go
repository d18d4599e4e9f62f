package fitter

import (
	"strings"
	"sync"

	"powersim/domain/core"
	"powersim/domain/dataset"
	"powersim/domain/simspec"
)

// modelDesign is the compiled structure shared by every fit of the same
// model shape: family, link, and the ordered coefficient list. A run
// fits the same shape once per replication, so the design is compiled
// once and reused.
type modelDesign struct {
	family       dataset.Family
	link         simspec.Link
	coefficients []core.CoefficientKey
}

// designCache holds compiled designs keyed by model shape. Shared state
// is internal to the fitter and never observable through the port.
type designCache struct {
	mu      sync.RWMutex
	designs map[string]*modelDesign
}

func newDesignCache() *designCache {
	return &designCache{designs: make(map[string]*modelDesign)}
}

// shapeKey identifies a ModelSpec shape: specs that differ only in prior
// parameters or data share a design.
func shapeKey(spec simspec.ModelSpec) string {
	parts := make([]string, 0, len(spec.Formula.Terms)+3)
	parts = append(parts, string(spec.Family), string(spec.Link))
	for _, k := range spec.Formula.Coefficients() {
		parts = append(parts, k.String())
	}
	return strings.Join(parts, "|")
}

// get returns the compiled design for the spec, compiling it on first use
func (c *designCache) get(spec simspec.ModelSpec) *modelDesign {
	key := shapeKey(spec)

	c.mu.RLock()
	design, ok := c.designs[key]
	c.mu.RUnlock()
	if ok {
		return design
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if design, ok = c.designs[key]; ok {
		return design
	}
	design = &modelDesign{
		family:       spec.Family,
		link:         spec.Link,
		coefficients: spec.Formula.Coefficients(),
	}
	c.designs[key] = design
	return design
}

// size reports the number of compiled designs (used by tests)
func (c *designCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.designs)
}
