package main

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rendis/flowscope/internal/derive"
	"github.com/rendis/flowscope/internal/validation"
	"github.com/rendis/flowscope/pkg/schema"
)

// runCheck loads every flow, domain and system document under dir, assembles
// one System snapshot, validates all scopes and derives test artifacts.
// Returns 1 when any error-severity issue is found, 2 on load failure.
func runCheck(dir string, out io.Writer, logger *slog.Logger) int {
	sys, err := loadSystem(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowscope: %v\n", err)
		return 2
	}

	validator, err := validation.NewGraphValidator()
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowscope: %v\n", err)
		return 2
	}

	// Registries are not loaded for file-based checks; registry-backed
	// reference validations are skipped rather than failed.
	results := validator.ValidateAll(sys, nil)

	errors, warnings := 0, 0
	for _, r := range results {
		for i := range r.Issues {
			iss := &r.Issues[i]
			switch iss.Severity {
			case schema.SeverityError:
				errors++
			case schema.SeverityWarning:
				warnings++
			}
			printIssue(out, r, iss)
		}
	}

	for _, d := range sys.Domains {
		for _, f := range d.Flows {
			paths := derive.DerivePaths(f)
			tests := derive.DeriveBoundaries(f)
			fmt.Fprintf(out, "%s/%s: %d paths, %d boundary tests\n", d.Name, f.ID, len(paths), len(tests))
		}
	}

	fmt.Fprintf(out, "%d errors, %d warnings\n", errors, warnings)
	logger.Info("check complete", "dir", dir, "errors", errors, "warnings", warnings)

	if errors > 0 {
		return 1
	}
	return 0
}

func printIssue(out io.Writer, r *schema.ValidationResult, iss *schema.ValidationIssue) {
	loc := string(r.Scope) + " " + r.TargetID
	if iss.NodeID != "" {
		loc += " node " + iss.NodeID
	} else if iss.FlowID != "" && iss.FlowID != r.TargetID {
		loc += " flow " + iss.FlowID
	}
	fmt.Fprintf(out, "%s: [%s] %s: %s\n", iss.Severity, loc, iss.Category, iss.Message)
	if iss.Suggestion != "" {
		fmt.Fprintf(out, "  suggestion: %s\n", iss.Suggestion)
	}
}

// loadSystem walks dir for *.yaml, *.yml and *.json documents and assembles
// one System. A document with "domains" is a system, with "flows" a domain,
// with "nodes" a flow. Standalone flows land in a synthetic "default" domain.
func loadSystem(dir string) (*schema.System, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "reading %s: %v", dir, err)
	}
	if len(files) == 0 {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "no flow documents under %s", dir)
	}
	sort.Strings(files)

	sys := &schema.System{}
	var loose []*schema.FlowGraph

	for _, path := range files {
		raw, err := toJSON(path)
		if err != nil {
			return nil, err
		}

		var probe struct {
			Domains json.RawMessage `json:"domains"`
			Flows   json.RawMessage `json:"flows"`
			Nodes   json.RawMessage `json:"nodes"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeDecode, "%s: %v", path, err)
		}

		switch {
		case probe.Domains != nil:
			var s schema.System
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, schema.NewErrorf(schema.ErrCodeDecode, "%s: %v", path, err)
			}
			sys.Domains = append(sys.Domains, s.Domains...)
		case probe.Flows != nil:
			var d schema.Domain
			if err := json.Unmarshal(raw, &d); err != nil {
				return nil, schema.NewErrorf(schema.ErrCodeDecode, "%s: %v", path, err)
			}
			sys.Domains = append(sys.Domains, &d)
		case probe.Nodes != nil:
			var f schema.FlowGraph
			if err := json.Unmarshal(raw, &f); err != nil {
				return nil, schema.NewErrorf(schema.ErrCodeDecode, "%s: %v", path, err)
			}
			loose = append(loose, &f)
		default:
			return nil, schema.NewErrorf(schema.ErrCodeDecode, "%s: not a flow, domain or system document", path)
		}
	}

	if len(loose) > 0 {
		sys.Domains = append(sys.Domains, &schema.Domain{Name: "default", Flows: loose})
	}
	return sys, nil
}

// toJSON reads path and returns its content as JSON bytes, converting YAML
// documents through an intermediate decode.
func toJSON(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "%s: %v", path, err)
	}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return data, nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeDecode, "%s: %v", path, err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeDecode, "%s: %v", path, err)
	}
	return raw, nil
}
