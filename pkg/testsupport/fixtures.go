package testsupport

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
// The path is relative to the test package directory.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// LoadRows loads a JSON array of objects as store rows. Numbers are kept as
// json.Number so integer columns are not widened to float64.
func LoadRows(t *testing.T, path string) []map[string]any {
	t.Helper()

	dec := json.NewDecoder(bytes.NewReader(LoadFixture(t, path)))
	dec.UseNumber()

	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		t.Fatalf("failed to decode rows fixture from %s: %v", path, err)
	}
	return rows
}

// ExecFile runs every statement of a SQL fixture against db. Statements are
// separated by lines holding only "--".
func ExecFile(t *testing.T, db Execer, path string) {
	t.Helper()

	for _, stmt := range splitStatements(string(LoadFixture(t, path))) {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to run %s: %v\n%s", path, err, stmt)
		}
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}
