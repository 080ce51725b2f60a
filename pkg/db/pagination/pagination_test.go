package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2025, 2, 3, 4, 5, 6, 7, time.UTC)
	token, err := EncodeCursor(Cursor{ID: 42, CreatedAt: at})
	require.NoError(t, err)

	c, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.ID)
	assert.True(t, c.CreatedAt.Equal(at))
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{"%%%", "bm90LWpzb24", "e30"} {
		_, err := DecodeCursor(token)
		assert.ErrorIs(t, err, ErrInvalidPageToken, token)
	}
}

func TestTrim(t *testing.T) {
	rows := []int{1, 2, 3}
	cursorOf := func(v int) Cursor { return Cursor{ID: int64(v)} }

	page, info, err := Trim(rows, 3, cursorOf)
	require.NoError(t, err)
	assert.Len(t, page, 3)
	assert.False(t, info.HasMore)

	page, info, err = Trim(rows, 2, cursorOf)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, page)
	assert.True(t, info.HasMore)
	c, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.ID)
}

func TestSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Size())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1000}.Size())
	assert.Equal(t, 5, Pagination{PageSize: 5}.Size())
}
