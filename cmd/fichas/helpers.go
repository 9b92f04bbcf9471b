package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// readRecord loads a candidate ficha from a JSON file, or stdin for "-".
func readRecord(path string) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse record %s: %w", path, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("parse record %s: not a JSON object", path)
	}
	return rec, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// writeJSONClose encodes v to wc and closes it. A close failure is returned
// when the encode succeeded.
func writeJSONClose(wc io.WriteCloser, v any) error {
	err := writeJSON(wc, v)
	if cerr := wc.Close(); err == nil {
		err = cerr
	}
	return err
}
