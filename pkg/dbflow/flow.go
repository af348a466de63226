package dbflow

import (
	"context"
	"fmt"
)

// Flow is a convenience builder that lets callers say Conf → Tune → Run
// without touching the underlying wiring.
type Flow struct {
	cfg  *Config
	opts []RuntimeOption
}

// Conf loads YAML from disk and returns a Flow builder.
func Conf(path string, opts ...RuntimeOption) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

// ConfFromConfig bootstraps a Flow from an in-memory Config.
func ConfFromConfig(cfg *Config, opts ...RuntimeOption) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	f := &Flow{cfg: cfg}
	return f.Tune(opts...), nil
}

// Config returns the underlying configuration so callers can tweak it
// before building a runtime.
func (f *Flow) Config() *Config {
	if f == nil {
		return nil
	}
	return f.cfg
}

// Tune records runtime overrides (executor, buffer, observability, clock).
func (f *Flow) Tune(opts ...RuntimeOption) *Flow {
	if f == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			f.opts = append(f.opts, opt)
		}
	}
	return f
}

// Open builds a Runtime ready to start.
func (f *Flow) Open(opts ...RuntimeOption) (*Runtime, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	f.Tune(opts...)
	return NewRuntime(f.cfg, f.opts...)
}

// Run is a shortcut for Open + runtime.Run.
func (f *Flow) Run(ctx context.Context, opts ...RuntimeOption) error {
	rt, err := f.Open(opts...)
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}
