package geocache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	plaza  = Entry{Address: "Plaza Mayor, Madrid, Community of Madrid, Spain", Longitude: -3.7074, Latitude: 40.4154, LocationType: "ROOFTOP", Score: 9, Located: true}
	toledo = Entry{Address: "Calle de Toledo 1, Madrid, Community of Madrid, Spain", Longitude: -3.7081, Latitude: 40.4125, LocationType: "GEOMETRIC_CENTER", Score: 6, Located: true}
	getafe = Entry{Address: "Getafe, Getafe, Community of Madrid, Spain", Longitude: -3.73, Latitude: 40.30, LocationType: "APPROXIMATE", Score: 4, Located: true}
)

func TestCache_Lookup(t *testing.T) {
	c := New(plaza, toledo)

	got, ok := c.Lookup(plaza.Address)
	require.True(t, ok)
	assert.Equal(t, plaza, got)

	_, ok = c.Lookup("plaza mayor, madrid, community of madrid, spain")
	assert.False(t, ok, "lookup is case sensitive")

	_, ok = c.Lookup(plaza.Address + " ")
	assert.False(t, ok, "lookup does not trim")
}

func TestCache_Matches(t *testing.T) {
	legacy := plaza
	legacy.Score = 4
	c := New(plaza, toledo, legacy)

	assert.Len(t, c.Matches(plaza.Address), 2)
	assert.Len(t, c.Matches(toledo.Address), 1)
	assert.Empty(t, c.Matches("missing"))
}

func TestCache_EntriesIsCopy(t *testing.T) {
	c := New(plaza)
	entries := c.Entries()
	entries[0].Score = 1

	got, _ := c.Lookup(plaza.Address)
	assert.Equal(t, 9, got.Score)
}

func TestMerge_Union(t *testing.T) {
	existing := New(plaza)

	merged, err := Merge(existing, []Entry{toledo, getafe})
	require.NoError(t, err)
	assert.Equal(t, []Entry{plaza, toledo, getafe}, merged.Entries())
	assert.Equal(t, 1, existing.Len(), "existing cache untouched")
}

func TestMerge_CollapsesExactDuplicates(t *testing.T) {
	merged, err := Merge(New(plaza), []Entry{plaza, toledo, toledo})
	require.NoError(t, err)
	assert.Equal(t, []Entry{plaza, toledo}, merged.Entries())
}

func TestMerge_CollapsesExistingDuplicates(t *testing.T) {
	merged, err := Merge(New(plaza, plaza, toledo), nil)
	require.NoError(t, err)
	assert.Equal(t, []Entry{plaza, toledo}, merged.Entries())
	assert.Len(t, merged.Matches(plaza.Address), 1)

	merged, err = Merge(New(plaza, toledo, plaza), []Entry{getafe, toledo})
	require.NoError(t, err)
	assert.Equal(t, []Entry{plaza, toledo, getafe}, merged.Entries())
}

func TestMerge_RejectsConflictWithinExisting(t *testing.T) {
	legacy := plaza
	legacy.Score = 4

	_, err := Merge(New(plaza, legacy), nil)
	assert.True(t, errors.Is(err, ErrConflictingEntry))
}

func TestMerge_Idempotent(t *testing.T) {
	once, err := Merge(New(plaza), []Entry{toledo})
	require.NoError(t, err)

	twice, err := Merge(once, []Entry{toledo})
	require.NoError(t, err)
	assert.Equal(t, once.Entries(), twice.Entries())

	again, err := Merge(once, once.Entries())
	require.NoError(t, err)
	assert.Equal(t, once.Entries(), again.Entries())
}

func TestMerge_RejectsConflict(t *testing.T) {
	moved := plaza
	moved.Latitude = 40.0

	_, err := Merge(New(plaza), []Entry{moved})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflictingEntry))
	assert.Contains(t, err.Error(), plaza.Address)
}

func TestMerge_RejectsConflictWithinNewEntries(t *testing.T) {
	other := toledo
	other.Score = 7

	_, err := Merge(New(), []Entry{toledo, other})
	assert.True(t, errors.Is(err, ErrConflictingEntry))
}

func TestMerge_NilExisting(t *testing.T) {
	merged, err := Merge(nil, []Entry{plaza})
	require.NoError(t, err)
	assert.Equal(t, 1, merged.Len())
}
