package recognize

import (
	"condo-plates/src/pkg/plate"
	"condo-plates/src/pkg/provider"
)

// Status describes how the recognizer is wired, for the status endpoint.
type Status struct {
	Providers       []string `json:"providers"`
	CloudEnabled    bool     `json:"cloud_enabled"`
	EngineAvailable bool     `json:"engine_available"`
	EngineVersion   string   `json:"engine_version,omitempty"`
	Preprocessor    string   `json:"preprocessor"`
	DefaultRegion   string   `json:"default_region"`
	Regions         []string `json:"regions"`
	Passes          []string `json:"passes"`
	Workers         int      `json:"workers"`
	DebugArtifacts  bool     `json:"debug_artifacts"`
}

func (r *Recognizer) Status() (status Status) {
	status.Providers = provider.Names(r.providers)
	status.CloudEnabled = len(r.providers) > 0

	status.EngineAvailable = true
	if engine, ok := r.engine.(interface{ Available() bool }); ok {
		status.EngineAvailable = engine.Available()
	}
	if engine, ok := r.engine.(interface{ Version() string }); ok {
		status.EngineVersion = engine.Version()
	}

	status.Preprocessor = r.preprocessor.Name()
	status.DefaultRegion = plate.Cfg.Region
	status.Regions = plate.Regions()
	for _, pass := range r.runner.Passes() {
		status.Passes = append(status.Passes, pass.Label())
	}
	status.Workers = r.runner.workers
	status.DebugArtifacts = r.cfg.DebugDir != ""
	return status
}
