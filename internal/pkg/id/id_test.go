package id

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Unique(t *testing.T) {
	a := New()
	b := New()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}

func TestAt_EncodesTimestamp(t *testing.T) {
	at := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	parsed, err := ulid.Parse(At(at))
	require.NoError(t, err)
	assert.True(t, at.Equal(ulid.Time(parsed.Time())))
}

func TestAt_SortsByTime(t *testing.T) {
	at := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	earlier := At(at)
	later := At(at.Add(time.Millisecond))
	assert.Less(t, earlier, later)
}
