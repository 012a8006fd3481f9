package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Match(t *testing.T) {
	f, err := New([]string{".DS_Store", "*.part", "build/**", "  "})
	require.NoError(t, err)

	tests := []struct {
		rel  string
		want bool
	}{
		{".DS_Store", true},
		{"photos/.DS_Store", true},
		{"movie.mkv.part", true},
		{"deep/nested/movie.part", true},
		{"build/out.bin", true},
		{"build/x/y.o", true},
		{"src/build/out.bin", false},
		{"movie.mkv", false},
		{"report.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Match(tt.rel))
		})
	}

	assert.Equal(t, []string{".DS_Store", "*.part", "build/**"}, f.Patterns())
}

func TestFilter_Nil(t *testing.T) {
	var f *Filter
	assert.False(t, f.Match("anything"))
	assert.Nil(t, f.Patterns())

	empty, err := New(nil)
	require.NoError(t, err)
	assert.False(t, empty.Match("anything"))
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New([]string{"[unclosed"})
	assert.ErrorIs(t, err, ErrInvalidPattern)
}
