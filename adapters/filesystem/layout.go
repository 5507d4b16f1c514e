package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"alignbench/domain/benchmark"
)

// Directory layout shared by the loaders and the run store.
//
//	<benchmark>/branches/<branch>/ground-truth-<kind>.json   (or ground-truth-typeN.json, ground-truth-combined.json)
//	<results>/raw/<framework>/<branch>/<kind>/run<N>.json    (kind dir may also be typeN)
//	<results>/processed/<framework>/<branch>/<kind>/run<N>_scored.json

var (
	rawRunFile    = regexp.MustCompile(`^run(\d+)\.json$`)
	scoredRunFile = regexp.MustCompile(`^run(\d+)_scored\.json$`)
)

// legacyDir is the typeN directory and file suffix older layouts use for kind
func legacyDir(kind benchmark.Kind) string {
	return fmt.Sprintf("type%d", kind.Ordinal()+1)
}

// parseRunNumber extracts N from a run file name matching re
func parseRunNumber(re *regexp.Regexp, name string) (int, bool) {
	m := re.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// listDirs returns the names of the subdirectories of dir; a missing dir has none
func listDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// readFirst reads the first existing file among paths; found is false when none exists
func readFirst(paths ...string) (data []byte, path string, found bool, err error) {
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			return data, p, true, nil
		}
		if !os.IsNotExist(err) {
			return nil, p, false, fmt.Errorf("failed to read %s: %w", p, err)
		}
	}
	return nil, "", false, nil
}

// writeFileAtomic writes data through a temporary file and a rename
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// sortKeys orders keys the same way stored records are listed
func sortKeys(keys []benchmark.RunKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
