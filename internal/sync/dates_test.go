package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpochMillis(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"rfc3339 with offset", "2024-01-15T10:30:00+00:00", 1705314600000},
		{"rfc3339 zulu", "2024-01-15T10:30:00Z", 1705314600000},
		{"rfc3339 negative offset", "2024-01-15T05:30:00-05:00", 1705314600000},
		{"naive treated as utc", "2024-01-15T10:30:00", 1705314600000},
		{"space separated", "2024-01-15 10:30:00", 1705314600000},
		{"date only", "2024-01-15", 1705276800000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EpochMillis(tt.input)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestEpochMillis_Invalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "not-a-date", "2024-13-45", "15/01/2024"} {
		assert.Nil(t, EpochMillis(input), "input %q", input)
	}
}
