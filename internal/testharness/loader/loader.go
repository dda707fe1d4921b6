package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseTestCase parses a test case from YAML bytes.
func ParseTestCase(data []byte) (*TestCase, error) {
	var tc TestCase
	if err := yaml.Unmarshal(data, &tc); err != nil {
		return nil, &LoadError{
			Message: "failed to parse YAML",
			Cause:   err,
		}
	}

	if tc.ID == "" {
		return nil, &LoadError{
			Message: "test case ID is required",
		}
	}

	if len(tc.Steps) == 0 {
		return nil, &LoadError{
			Message: "test case must have at least one step",
		}
	}

	for i, step := range tc.Steps {
		if step.Action == "" {
			return nil, &LoadError{
				Message: "step " + strconv.Itoa(i+1) + " has no action",
			}
		}
	}

	return &tc, nil
}

// LoadTestCase loads a test case from a file.
func LoadTestCase(path string) (*TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	tc, err := ParseTestCase(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{
			File:    path,
			Message: err.Error(),
		}
	}

	return tc, nil
}

// LoadDirectory loads all test cases from a directory and its
// subdirectories. Only files with .yaml or .yml extensions are loaded.
func LoadDirectory(dir string) ([]*TestCase, error) {
	return LoadDirectoryWithFilter(dir, "")
}

// LoadDirectoryWithFilter is LoadDirectory restricted to files whose stem
// matches one of the comma-separated glob patterns in files. An empty
// files loads everything.
func LoadDirectoryWithFilter(dir, files string) ([]*TestCase, error) {
	var patterns []string
	for _, p := range strings.Split(files, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}

	var cases []*TestCase
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if !matchesAny(strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())), patterns) {
			return nil
		}

		tc, err := LoadTestCase(path)
		if err != nil {
			return err
		}
		cases = append(cases, tc)
		return nil
	})
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			return nil, le
		}
		return nil, &LoadError{
			File:    dir,
			Message: "failed to read directory",
			Cause:   err,
		}
	}

	return cases, nil
}

// CheckRequirements reports whether caps implements every header the test
// requires, and the first missing one otherwise.
func CheckRequirements(caps *Capabilities, requirements []string) (string, bool) {
	for _, req := range requirements {
		if !caps.Supports(req) {
			return req, false
		}
	}
	return "", true
}

// FilterTestCases returns test cases whose requirements caps meets.
func FilterTestCases(cases []*TestCase, caps *Capabilities) []*TestCase {
	var result []*TestCase
	for _, tc := range cases {
		if _, ok := CheckRequirements(caps, tc.Requires); ok {
			result = append(result, tc)
		}
	}
	return result
}

func matchesAny(stem string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, stem); ok {
			return true
		}
	}
	return false
}
