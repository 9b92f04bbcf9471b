// Package pipeline runs one ficha end to end: it loads the per-chunk
// responses of a document, decodes them into partials, fuses, sanitizes and
// completes the record, then scores and verifies it.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"fichas/internal/conform"
	"fichas/internal/ficha"
	"fichas/internal/fusion"
	"fichas/internal/logging"
	"fichas/internal/quality"
	"fichas/internal/store"
)

// ErrNoChunks is returned by LoadChunks when the directory holds no chunk
// file for the base name.
var ErrNoChunks = errors.New("no chunks")

// Chunk is the raw generator response for one text chunk.
type Chunk struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Raw   string `json:"-"`
}

// Exclusion records a chunk left out of the vote.
type Exclusion struct {
	Chunk  string `json:"chunk"`
	Reason string `json:"reason"`
}

// Input carries the collaborators of a run.
type Input struct {
	Engine *fusion.Engine
	Scorer *quality.Scorer
	// Gate withholds a partial's field from the vote when the scorer's rule
	// for that field fails on the partial.
	Gate bool
}

// Result is the outcome of a run.
type Result struct {
	Record   ficha.Record
	Report   quality.Report
	Problems []error
	Excluded []Exclusion
}

// ToRun converts the result into a storable run for base.
func (r Result) ToRun(base, schemaName string) (*store.Run, error) {
	rec, err := json.Marshal(r.Record)
	if err != nil {
		return nil, fmt.Errorf("pipeline: marshal record: %w", err)
	}
	run := &store.Run{
		Base:   base,
		Schema: schemaName,
		Record: rec,
		Report: r.Report,
	}
	for _, p := range r.Problems {
		run.Problems = append(run.Problems, p.Error())
	}
	for _, x := range r.Excluded {
		run.Excluded = append(run.Excluded, x.Chunk)
	}
	return run, nil
}

// LoadChunks reads every <base>_parte<N>.json file in dir, ordered by N, using
// at most parallel concurrent readers (1 when parallel < 1).
func LoadChunks(ctx context.Context, dir, base string, parallel int) ([]Chunk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read dir %q: %w", dir, err)
	}
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `_parte(\d+)\.json$`)

	var chunks []Chunk
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := pattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		chunks = append(chunks, Chunk{Index: n, Name: e.Name()})
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("pipeline: %q in %q: %w", base, dir, ErrNoChunks)
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })

	if parallel < 1 {
		parallel = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(dir, chunks[i].Name))
			if err != nil {
				return fmt.Errorf("pipeline: read chunk %q: %w", chunks[i].Name, err)
			}
			chunks[i].Raw = string(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// Run fuses chunks into one scored record. Chunks that do not decode to a
// JSON object are excluded and logged; they never fail the run.
func Run(ctx context.Context, in Input, chunks []Chunk) (Result, error) {
	if in.Engine == nil || in.Scorer == nil {
		return Result{}, fmt.Errorf("pipeline: engine and scorer are required")
	}
	logger := logging.New("pipeline")

	var res Result
	partials := make([]ficha.Partial, 0, len(chunks))
	for _, c := range chunks {
		p, err := fusion.DecodePartial(c.Raw)
		if err != nil {
			logger.WarnContext(ctx, "chunk excluded", "chunk", c.Name, "error", err)
			res.Excluded = append(res.Excluded, Exclusion{Chunk: c.Name, Reason: err.Error()})
			continue
		}
		if in.Gate {
			p = gate(in.Scorer, p)
		}
		partials = append(partials, p)
	}
	logger.DebugContext(ctx, "fusing", "partials", len(partials), "excluded", len(res.Excluded))

	rec := in.Engine.Fuse(partials)
	rec = in.Engine.Sanitize(rec)
	rec = in.Engine.Complete(rec)

	res.Record = rec
	res.Report = in.Scorer.Score(rec.Map())
	res.Problems = conform.Verify(in.Engine.Schema(), rec.Map())
	logger.InfoContext(ctx, "run complete",
		"score", res.Report.Score,
		"problems", len(res.Problems),
		"excluded", len(res.Excluded))
	return res, nil
}

func gate(sc *quality.Scorer, p ficha.Partial) ficha.Partial {
	rep := sc.Score(p)
	out := make(ficha.Partial, len(p))
	for k, v := range p {
		if r, ok := rep.Field(k); ok && !r.Valid {
			continue
		}
		out[k] = v
	}
	return out
}
