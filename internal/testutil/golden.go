package testutil

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// updateGolden controls whether golden files are rewritten.
// Use: go test ./internal/query -run TestGolden -update
var updateGolden = flag.Bool("update", false, "update golden files")

// ShouldUpdate returns true if golden files should be updated.
func ShouldUpdate() bool {
	return *updateGolden
}

// GoldenPath returns testdata/golden/<name>.json relative to the package
// under test.
func GoldenPath(name string) string {
	return filepath.Join("testdata", "golden", name+".json")
}

// CompareGolden compares the normalized JSON of got against a golden file,
// failing with a diff on mismatch. With -update the file is rewritten.
func CompareGolden(t *testing.T, name, root string, got any) {
	t.Helper()

	normalized := MarshalNormalized(t, root, got)
	path := GoldenPath(name)

	if *updateGolden {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(path, normalized, 0o644); err != nil {
			t.Fatalf("Failed to write golden file: %v", err)
		}
		t.Logf("Updated golden: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("Golden file missing: %s\n\nGot:\n%s\n\nRun with -update to create:\n  go test -run %s -update",
				path, normalized, t.Name())
		}
		t.Fatalf("Failed to read golden file: %v", err)
	}

	if !bytes.Equal(normalized, expected) {
		t.Fatalf("Golden mismatch for %s:\n%s\n\nRun with -update to refresh:\n  go test -run %s -update",
			name, lineDiff(string(expected), string(normalized), path), t.Name())
	}
}

// lineDiff renders differing lines between two texts. It is a line-by-line
// comparison, not a minimal diff.
func lineDiff(expected, got, path string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- %s (expected)\n", path)
	fmt.Fprintf(&buf, "+++ %s (got)\n", path)

	exp := strings.Split(expected, "\n")
	act := strings.Split(got, "\n")
	for i := 0; i < max(len(exp), len(act)); i++ {
		var e, a string
		if i < len(exp) {
			e = exp[i]
		}
		if i < len(act) {
			a = act[i]
		}
		if e == a {
			continue
		}
		fmt.Fprintf(&buf, "@@ line %d @@\n", i+1)
		if i < len(exp) {
			buf.WriteString("-" + e + "\n")
		}
		if i < len(act) {
			buf.WriteString("+" + a + "\n")
		}
	}
	return buf.String()
}
