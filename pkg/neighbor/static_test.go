package neighbor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStaticTOML(t *testing.T) {
	input := `
[[neighbor]]
ip = "10.0.0.5"
mac = "aa:bb:cc:dd:ee:ff"

[[neighbor]]
ip = "10.0.0.6"
mac = "02-00-00-00-00-06"
`
	got, err := ParseStaticTOML(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []Entry{
		mustEntry(t, "10.0.0.5", "aa:bb:cc:dd:ee:ff"),
		mustEntry(t, "10.0.0.6", "02:00:00:00:00:06"),
	}, got)
}

func TestParseStaticJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		count   int
		wantErr string
	}{
		{name: "array", input: `[{"ip":"10.0.0.5","mac":"aa:bb:cc:dd:ee:ff"}]`, count: 1},
		{name: "object", input: `{"neighbors":[{"ip":"10.0.0.5","mac":"aa:bb:cc:dd:ee:ff"},{"ip":"10.0.0.6","mac":"aa:bb:cc:dd:ee:01"}]}`, count: 2},
		{name: "empty array", input: `[]`, count: 0},
		{name: "malformed", input: `[{"ip":`, wantErr: "malformed"},
		{name: "not a list", input: `{"ip":"10.0.0.5"}`, wantErr: "expected an array"},
		{name: "bad ip", input: `[{"ip":"10.0.0","mac":"aa:bb:cc:dd:ee:ff"}]`, wantErr: "neighbor 0"},
		{name: "ipv6", input: `[{"ip":"fe80::1","mac":"aa:bb:cc:dd:ee:ff"}]`, wantErr: "not an ipv4"},
		{name: "bad mac", input: `[{"ip":"10.0.0.5","mac":"aa:bb"}]`, wantErr: "invalid mac"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStaticJSON([]byte(tt.input))
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, tt.count)
		})
	}
}

func TestLoadStatic(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "neighbors.toml")
	jsonPath := filepath.Join(dir, "neighbors.JSON")
	require.NoError(t, os.WriteFile(tomlPath, []byte("[[neighbor]]\nip = \"10.0.0.5\"\nmac = \"aa:bb:cc:dd:ee:ff\"\n"), 0o644))
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"ip":"10.0.0.5","mac":"aa:bb:cc:dd:ee:ff"}]`), 0o644))

	want := []Entry{mustEntry(t, "10.0.0.5", "aa:bb:cc:dd:ee:ff")}
	for _, path := range []string{tomlPath, jsonPath} {
		got, err := LoadStatic(path)
		require.NoError(t, err, path)
		require.Equal(t, want, got)
	}

	_, err := LoadStatic(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
}
