package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/asaidimu/go-influxql/core/query"
)

// readSpec loads a QuerySpec from path on fs, or from stdin when path is "-".
// Files ending in .json are decoded as JSON, everything else as YAML.
func readSpec(fs afero.Fs, path string, stdin io.Reader) (*query.QuerySpec, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = afero.ReadFile(fs, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read spec %s: %w", path, err)
	}

	var spec query.QuerySpec
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &spec)
	} else {
		err = yaml.Unmarshal(data, &spec)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode spec %s: %w", path, err)
	}
	return &spec, nil
}
