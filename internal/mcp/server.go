// Package mcp exposes fusion, verification and scoring as MCP tools so an
// agent driving the generator can check its output as it goes.
package mcp

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"fichas/internal/conform"
	"fichas/internal/logging"
	"fichas/internal/pipeline"
	"fichas/internal/quality"
	"fichas/internal/store"
	"fichas/internal/wiring"
)

// Server wraps the MCP SDK server around one runtime.
type Server struct {
	MCPServer *sdkmcp.Server

	rt    *wiring.Runtime
	store store.Store
}

// NewServer registers the fichas tools. st may be nil, in which case
// fuse_partials rejects save requests.
func NewServer(rt *wiring.Runtime, st store.Store, version string) *Server {
	s := &Server{rt: rt, store: st}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "fichas", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "fuse_partials",
		Description: "Fuse raw per-chunk generator responses into one ficha. Returns the record, its quality report and schema problems; optionally stores the run.",
	}, s.handleFusePartials)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "verify_record",
		Description: "Check a candidate ficha against the schema: missing fields, shape mismatches and empty mandatory fields.",
	}, s.handleVerifyRecord)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "score_record",
		Description: "Score a candidate ficha with the domain rule battery. Values may be raw generator text.",
	}, s.handleScoreRecord)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "describe_schema",
		Description: "List the schema fields with shape, identity key, merge strategy and requirement.",
	}, s.handleDescribeSchema)
}

// --- Tool input/output types ---

type fusePartialsInput struct {
	Partials []string `json:"partials" jsonschema:"raw generator responses, one per chunk, in chunk order"`
	Base     string   `json:"base,omitempty" jsonschema:"document base name recorded with a saved run"`
	Save     bool     `json:"save,omitempty" jsonschema:"store the run and return its ID"`
}

type fusePartialsOutput struct {
	Record   map[string]any       `json:"record"`
	Report   quality.Report       `json:"report"`
	Problems []problem            `json:"problems"`
	Excluded []pipeline.Exclusion `json:"excluded"`
	RunID    string               `json:"run_id,omitempty"`
}

type problem struct {
	Field  string `json:"field"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

type recordInput struct {
	Record map[string]any `json:"record" jsonschema:"candidate ficha, field name to value"`
}

type verifyRecordOutput struct {
	OK       bool      `json:"ok"`
	Problems []problem `json:"problems"`
}

type scoreRecordInput struct {
	Record    map[string]any `json:"record" jsonschema:"candidate ficha, field name to value"`
	Threshold float64        `json:"threshold,omitempty" jsonschema:"pass mark between 0 and 1 (default from config)"`
}

type scoreRecordOutput struct {
	Report quality.Report `json:"report"`
	Passed bool           `json:"passed"`
}

type describeSchemaInput struct{}

type fieldInfo struct {
	Name       string   `json:"name"`
	Shape      string   `json:"shape"`
	Key        string   `json:"key,omitempty"`
	Channels   []string `json:"channels,omitempty"`
	Strategy   string   `json:"strategy"`
	Required   bool     `json:"required"`
	HasDefault bool     `json:"has_default"`
}

type describeSchemaOutput struct {
	Name   string      `json:"name"`
	Fields []fieldInfo `json:"fields"`
}

// --- Tool handlers ---

func (s *Server) handleFusePartials(ctx context.Context, _ *sdkmcp.CallToolRequest, input fusePartialsInput) (*sdkmcp.CallToolResult, fusePartialsOutput, error) {
	if len(input.Partials) == 0 {
		return nil, fusePartialsOutput{}, fmt.Errorf("partials is required")
	}
	if input.Save && s.store == nil {
		return nil, fusePartialsOutput{}, fmt.Errorf("no run store configured")
	}
	chunks := make([]pipeline.Chunk, len(input.Partials))
	for i, raw := range input.Partials {
		chunks[i] = pipeline.Chunk{Index: i + 1, Name: fmt.Sprintf("partial %d", i+1), Raw: raw}
	}
	res, err := pipeline.Run(ctx, s.rt.Input(), chunks)
	if err != nil {
		return nil, fusePartialsOutput{}, err
	}
	out := fusePartialsOutput{
		Record:   res.Record.Map(),
		Report:   res.Report,
		Problems: problems(res.Problems),
		Excluded: res.Excluded,
	}
	if out.Excluded == nil {
		out.Excluded = []pipeline.Exclusion{}
	}
	if input.Save {
		run, err := res.ToRun(input.Base, s.rt.Schema.Name())
		if err != nil {
			return nil, fusePartialsOutput{}, err
		}
		id, err := s.store.SaveRun(run)
		if err != nil {
			return nil, fusePartialsOutput{}, fmt.Errorf("save run: %w", err)
		}
		logging.New("mcp").Info("run saved", "id", id, "base", input.Base)
		out.RunID = id
	}
	return nil, out, nil
}

func (s *Server) handleVerifyRecord(_ context.Context, _ *sdkmcp.CallToolRequest, input recordInput) (*sdkmcp.CallToolResult, verifyRecordOutput, error) {
	if input.Record == nil {
		return nil, verifyRecordOutput{}, fmt.Errorf("record is required")
	}
	ps := problems(conform.Verify(s.rt.Schema, input.Record))
	return nil, verifyRecordOutput{OK: len(ps) == 0, Problems: ps}, nil
}

func (s *Server) handleScoreRecord(_ context.Context, _ *sdkmcp.CallToolRequest, input scoreRecordInput) (*sdkmcp.CallToolResult, scoreRecordOutput, error) {
	if input.Record == nil {
		return nil, scoreRecordOutput{}, fmt.Errorf("record is required")
	}
	if input.Threshold < 0 || input.Threshold > 1 {
		return nil, scoreRecordOutput{}, fmt.Errorf("threshold %v out of range [0, 1]", input.Threshold)
	}
	threshold := input.Threshold
	if threshold == 0 {
		threshold = s.rt.Config.Threshold
	}
	rep := s.rt.Scorer.Score(input.Record)
	return nil, scoreRecordOutput{Report: rep, Passed: rep.Passed(threshold)}, nil
}

func (s *Server) handleDescribeSchema(_ context.Context, _ *sdkmcp.CallToolRequest, _ describeSchemaInput) (*sdkmcp.CallToolResult, describeSchemaOutput, error) {
	out := describeSchemaOutput{Name: s.rt.Schema.Name()}
	for _, f := range s.rt.Schema.Fields() {
		st, _ := s.rt.Engine.Strategy(f.Name)
		out.Fields = append(out.Fields, fieldInfo{
			Name:       f.Name,
			Shape:      string(f.Shape),
			Key:        f.Key,
			Channels:   f.Channels,
			Strategy:   string(st),
			Required:   f.Mandatory(),
			HasDefault: f.HasDefault(),
		})
	}
	return nil, out, nil
}

func problems(errs []error) []problem {
	out := make([]problem, 0, len(errs))
	for _, err := range errs {
		var fe *conform.FieldError
		if errors.As(err, &fe) {
			out = append(out, problem{Field: fe.Field, Kind: fe.Err.Error(), Detail: fe.Detail})
			continue
		}
		out = append(out, problem{Kind: err.Error()})
	}
	return out
}
