package language

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_Extensions(t *testing.T) {
	tests := []struct {
		id  string
		ext string
	}{
		{"cplusplus", "cpp"},
		{"csharp", "cs"},
		{"crystal", "cr"},
		{"dart", "dart"},
		{"elm", "elm"},
		{"golang", "go"},
		{"haskell", "hs"},
		{"java", "java"},
		{"json-schema", "json"},
		{"javascript", "js"},
		{"javascript-prop-types", "js"},
		{"kotlin", "kt"},
		{"pike", "pike"},
		{"python", "py"},
		{"rust", "rs"},
		{"ruby", "rb"},
		{"swift", "swift"},
		{"typescript", "ts"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			spec, err := Lookup(tt.id)
			require.NoError(t, err)
			assert.Equal(t, ID(tt.id), spec.ID)
			assert.Equal(t, tt.ext, spec.FileExtension)
		})
	}

	// Test: the table above covers the whole registry
	assert.Len(t, All(), len(tests))
}

func TestLookup_Unsupported(t *testing.T) {
	for _, id := range []string{"", "go", "ts", "TypeScript", "cobol"} {
		_, err := Lookup(id)
		require.Error(t, err, id)
		assert.True(t, errors.Is(err, ErrUnsupportedLanguage))
	}
}

func TestAll_NoDuplicates(t *testing.T) {
	seen := make(map[ID]bool)
	for _, s := range All() {
		assert.False(t, seen[s.ID], "duplicate id %s", s.ID)
		seen[s.ID] = true
		assert.NotEmpty(t, s.FileExtension)
	}
}

func TestDefaultTargetDir(t *testing.T) {
	java, err := Lookup("java")
	require.NoError(t, err)
	assert.Equal(t, "src/main/java", java.DefaultTargetDir)

	ts, err := Lookup("typescript")
	require.NoError(t, err)
	assert.Empty(t, ts.DefaultTargetDir)
}

func TestAll_ReturnsCopy(t *testing.T) {
	all := All()
	all[0].FileExtension = "changed"

	spec, err := Lookup(string(all[0].ID))
	require.NoError(t, err)
	assert.NotEqual(t, "changed", spec.FileExtension)
}
