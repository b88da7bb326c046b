package attempt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_PreservesOrder(t *testing.T) {
	l := NewLog()
	l.Response("https://a", 200)
	l.Failure("https://b", errors.New("dial tcp: timeout"))
	l.Response("https://c", 404)

	entries := l.Entries()
	require.Len(t, entries, 3)

	assert.Equal(t, "https://a", entries[0].URL)
	assert.False(t, entries[0].Failed())
	assert.Equal(t, 200, entries[0].Status)

	assert.Equal(t, "https://b", entries[1].URL)
	assert.True(t, entries[1].Failed())
	assert.Nil(t, entries[1].OK)
	assert.Equal(t, "dial tcp: timeout", entries[1].Error)

	assert.Equal(t, "https://c", entries[2].URL)
	require.NotNil(t, entries[2].OK)
	assert.False(t, *entries[2].OK)
}

func TestLog_EntriesIsACopy(t *testing.T) {
	l := NewLog()
	l.Response("https://a", 200)

	entries := l.Entries()
	entries[0].URL = "mutated"

	assert.Equal(t, "https://a", l.Entries()[0].URL)
	assert.Equal(t, 1, l.Len())
}

func TestLog_FailureWithoutError(t *testing.T) {
	l := NewLog()
	l.Failure("https://a", nil)
	assert.Equal(t, "unknown_error", l.Entries()[0].Error)
}

func TestLog_UnreadableIsOneFailedEntry(t *testing.T) {
	l := NewLog()
	l.Unreadable("https://a", 200, errors.New("failed to decode response: unexpected EOF"))

	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 200, entries[0].Status)
	assert.True(t, entries[0].Failed())
	assert.Contains(t, entries[0].Error, "decode")
}
