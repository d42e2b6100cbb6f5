package testsupport

import (
	"encoding/json"
	"os"
	"testing"
)

// Fixture returns the raw bytes of a testdata file.
func Fixture(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}

// Golden decodes a JSON testdata file into v.
func Golden(t testing.TB, path string, v any) {
	t.Helper()
	if err := json.Unmarshal(Fixture(t, path), v); err != nil {
		t.Fatalf("decode fixture %s: %v", path, err)
	}
}
