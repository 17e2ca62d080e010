package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kasirlokal/backend/internal/domain"
	"kasirlokal/backend/internal/store"
)

var (
	gudeg = domain.Product{ID: "p1", Code: "NG001", Name: "Nasi Gudeg", Category: "Makanan", Price: 15000, Stock: 50}
	esTeh = domain.Product{ID: "p2", Code: "ETM001", Name: "Es Teh Manis", Category: "Minuman", Price: 5000, Stock: 100}
)

func fixedNow() time.Time {
	return time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
}

func assertTotalsConsistent(t *testing.T, c *Cart) {
	t.Helper()
	var sum int64
	for _, line := range c.Lines() {
		assert.Equal(t, line.Price*int64(line.Quantity), line.Subtotal, "line %s subtotal", line.ID)
		sum += line.Subtotal
	}
	assert.Equal(t, sum, c.Total())
}

func TestAddNewLineSnapshotsProduct(t *testing.T) {
	c := New(nil, fixedNow)

	line, err := c.Add(gudeg, 2)
	require.NoError(t, err)

	assert.Equal(t, gudeg, line.Product)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, int64(30000), line.Subtotal)
	assert.Equal(t, fixedNow(), line.AddedAt)
	assertTotalsConsistent(t, c)
}

func TestAddExistingLineIncrementsQuantity(t *testing.T) {
	c := New(nil, fixedNow)
	_, err := c.Add(gudeg, 1)
	require.NoError(t, err)

	repriced := gudeg
	repriced.Price = 20000
	line, err := c.Add(repriced, 2)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, int64(45000), line.Subtotal, "existing line keeps the price it was added at")
	assertTotalsConsistent(t, c)
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	c := New(nil, fixedNow)

	_, err := c.Add(gudeg, 0)
	require.ErrorIs(t, err, store.ErrInvalidInput)
	_, err = c.Add(gudeg, -2)
	require.ErrorIs(t, err, store.ErrInvalidInput)
	assert.Equal(t, 0, c.Len())
}

func TestSetQuantity(t *testing.T) {
	c := New(nil, fixedNow)
	_, _ = c.Add(gudeg, 1)
	_, _ = c.Add(esTeh, 1)

	require.NoError(t, c.SetQuantity(esTeh.ID, 4))
	assert.Equal(t, 5, c.ItemCount())
	assert.Equal(t, int64(35000), c.Total())
	assertTotalsConsistent(t, c)

	require.NoError(t, c.SetQuantity(gudeg.ID, 0))
	assert.Equal(t, 1, c.Len())
	assertTotalsConsistent(t, c)

	require.ErrorIs(t, c.SetQuantity("missing", 3), store.ErrNotFound)
	require.NoError(t, c.SetQuantity("missing", -1))
}

func TestRemoveIsIdempotent(t *testing.T) {
	c := New(nil, fixedNow)
	_, _ = c.Add(gudeg, 2)
	_, _ = c.Add(esTeh, 2)

	assert.True(t, c.Remove(gudeg.ID))
	once := c.Lines()
	assert.False(t, c.Remove(gudeg.ID))
	assert.Equal(t, once, c.Lines())
}

func TestTotalAndItemCount(t *testing.T) {
	c := New(nil, fixedNow)
	assert.Equal(t, int64(0), c.Total())
	assert.Equal(t, 0, c.ItemCount())

	_, _ = c.Add(gudeg, 2)
	_, _ = c.Add(esTeh, 2)

	assert.Equal(t, int64(40000), c.Total())
	assert.Equal(t, 4, c.ItemCount())

	summary := c.Summary()
	assert.Len(t, summary.Lines, 2)
	assert.Equal(t, int64(40000), summary.Total)
	assert.Equal(t, 4, summary.ItemCount)
}

func TestClear(t *testing.T) {
	c := New(nil, fixedNow)
	_, _ = c.Add(gudeg, 2)

	c.Clear()
	assert.Equal(t, 0, c.ItemCount())
	assert.NotNil(t, c.Lines())
	assert.Empty(t, c.Lines())
}

func TestLinesAreCopies(t *testing.T) {
	c := New(nil, fixedNow)
	_, _ = c.Add(gudeg, 1)

	lines := c.Lines()
	lines[0].Quantity = 99

	assert.Equal(t, 1, c.ItemCount())
}
