package datasets

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/facette/natsort"
)

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	return strconv.Atoi(s)
}

// listFiles returns the names of regular files directly under dir that end
// with suffix, in natural order ("2_..." before "10_...").
func listFiles(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		names = append(names, e.Name())
	}
	natsort.Sort(names)
	return names, nil
}

// FindCSVInDir returns the first CSV file in dir whose name contains hint.
func FindCSVInDir(dir, hint string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if strings.Contains(filepath.Base(m), hint) {
			return m, nil
		}
	}
	return "", fmt.Errorf("no CSV matching %q found in %s", hint, dir)
}
