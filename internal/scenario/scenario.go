package scenario

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"powersim/domain/simspec"
	"powersim/internal/errors"
)

// document mirrors SimulationSpec for YAML scenario files. The only
// divergence is fit_timeout, carried as a duration string ("30s").
type document struct {
	simspec.SimulationSpec `yaml:",inline"`
	FitTimeout             string `yaml:"fit_timeout,omitempty"`
}

// Parse decodes a YAML scenario into a normalized, validated spec
func Parse(data []byte) (simspec.SimulationSpec, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return simspec.SimulationSpec{}, errors.Wrap(err, "failed to parse scenario")
	}

	spec := doc.SimulationSpec
	if doc.FitTimeout != "" {
		d, err := time.ParseDuration(doc.FitTimeout)
		if err != nil {
			return simspec.SimulationSpec{}, errors.ValidationError("fit_timeout must be a duration string like \"30s\"")
		}
		spec.FitTimeout = d
	}

	spec = spec.Normalize()
	if err := spec.Validate(); err != nil {
		return simspec.SimulationSpec{}, err
	}
	return spec, nil
}

// Load reads and parses a scenario file
func Load(path string) (simspec.SimulationSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return simspec.SimulationSpec{}, errors.Wrapf(err, "failed to read scenario %s", path)
	}
	return Parse(data)
}
