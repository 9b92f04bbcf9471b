// Package wiring builds the collaborators of a run from a Config. The CLI and
// the MCP server both start here.
package wiring

import (
	"fmt"

	"fichas/adapters/vocabulary"
	"fichas/internal/config"
	"fichas/internal/fusion"
	"fichas/internal/pipeline"
	"fichas/internal/quality"
	"fichas/internal/schema"
	"fichas/internal/store"
)

// Runtime holds the immutable collaborators derived from one Config.
type Runtime struct {
	Config     *config.Config
	Schema     *schema.Schema
	Vocabulary *vocabulary.Vocabulary
	Engine     *fusion.Engine
	Scorer     *quality.Scorer
}

// Build loads the schema, vocabulary and rules named by cfg (embedded ones
// when unset) and constructs the engine and scorer. A nil cfg means
// config.Default().
func Build(cfg *config.Config) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	rt := &Runtime{Config: cfg}

	rt.Schema = schema.Default()
	if cfg.Schema != "" {
		s, err := schema.Load(cfg.Schema)
		if err != nil {
			return nil, fmt.Errorf("wiring: %w", err)
		}
		rt.Schema = s
	}

	rt.Vocabulary = vocabulary.Default()
	if cfg.Vocabulary != "" {
		v, err := vocabulary.Load(cfg.Vocabulary)
		if err != nil {
			return nil, fmt.Errorf("wiring: %w", err)
		}
		rt.Vocabulary = v
	}

	rules := quality.DefaultRules()
	if cfg.Rules != "" {
		r, err := quality.LoadRules(cfg.Rules)
		if err != nil {
			return nil, fmt.Errorf("wiring: %w", err)
		}
		rules = r
	}

	opts := make([]fusion.Option, 0, len(cfg.Strategies))
	for field, st := range cfg.Strategies {
		opts = append(opts, fusion.WithStrategy(field, fusion.Strategy(st)))
	}
	e, err := fusion.New(rt.Schema, opts...)
	if err != nil {
		return nil, fmt.Errorf("wiring: %w", err)
	}
	rt.Engine = e

	sc, err := quality.New(rt.Schema, quality.Vocabularies{"tipo_ayuda": rt.Vocabulary}, quality.WithRules(rules))
	if err != nil {
		return nil, fmt.Errorf("wiring: %w", err)
	}
	rt.Scorer = sc
	return rt, nil
}

// Input returns the pipeline input for this runtime.
func (rt *Runtime) Input() pipeline.Input {
	return pipeline.Input{Engine: rt.Engine, Scorer: rt.Scorer, Gate: rt.Config.Gate}
}

// OpenStore opens the SQLite run store at the configured path.
func (rt *Runtime) OpenStore() (store.Store, error) {
	s, err := store.Open(rt.Config.DB)
	if err != nil {
		return nil, fmt.Errorf("wiring: %w", err)
	}
	return s, nil
}
