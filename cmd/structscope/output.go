package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// output sends results to stdout or, when dir is set, to <dir>/<name>.json
// with an optional <dir>/<name>.md report beside it.
type output struct {
	w      io.Writer
	dir    string
	report bool
	log    *slog.Logger
}

func (o *output) write(jobs []*job, results []any, reports []string) error {
	if o.dir == "" {
		return o.writeStdout(jobs, results, reports)
	}
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	for i, j := range jobs {
		if err := writeJSON(o.dir, j.name+".json", results[i]); err != nil {
			return err
		}
		if o.report && reports[i] != "" {
			p := filepath.Join(o.dir, j.name+".md")
			if err := os.WriteFile(p, []byte(reports[i]), 0o644); err != nil {
				return fmt.Errorf("output: %w", err)
			}
		}
		o.log.Info("wrote results", "analyzer", j.name, "dir", o.dir)
	}
	return nil
}

// writeStdout prints a single result as is and several as one object keyed
// by analyzer name.
func (o *output) writeStdout(jobs []*job, results []any, reports []string) error {
	var v any = results[0]
	if len(jobs) > 1 {
		all := make(map[string]any, len(jobs))
		for i, j := range jobs {
			all[j.name] = results[i]
		}
		v = all
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if _, err := fmt.Fprintln(o.w, string(b)); err != nil {
		return err
	}
	if !o.report {
		return nil
	}
	for _, md := range reports {
		if md != "" {
			fmt.Fprintln(o.w)
			fmt.Fprint(o.w, md)
		}
	}
	return nil
}

func writeJSON(dir, name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("output: %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}
