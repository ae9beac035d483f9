// Package hcl loads network definitions written in HCL and translates them
// into the format-agnostic config model.
package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/tensorgridgo/internal/config"
	"github.com/vk/tensorgridgo/internal/ctxlog"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates an HCL network definition loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the .hcl file or directory of .hcl files at path and translates
// the contents into a single model.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := findFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found at %s", path)
	}
	logger.Debug("Discovered network definition files.", "count", len(files))

	parser := hclparse.NewParser()
	var bodies []hcl.Body
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", file, diags)
		}
		bodies = append(bodies, f.Body)
	}

	model, err := translate(ctx, hcl.MergeBodies(bodies))
	if err != nil {
		return nil, err
	}
	logger.Debug("Network definition translated into unified model.", "functions", len(model.Functions))
	return model, nil
}

// findFiles resolves path to the list of .hcl files it names: either the
// single file itself, or every .hcl file directly inside the directory.
func findFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read network path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read network directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".hcl") {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	return files, nil
}
