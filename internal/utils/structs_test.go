package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	ID      string  `db:"id"`
	Name    *string `db:"name"`
	Note    *string `db:"note"`
	Skipped string  `db:"-"`
	NoTag   string
	hidden  string `db:"hidden"`
}

func TestStructTagValues(t *testing.T) {
	require.Equal(t, []string{"id", "name", "note"}, StructTagValues(sample{}))
	require.Equal(t, []string{"id", "name", "note"}, StructTagValues(&sample{}))
}

func TestPatchMapSkipsNilPointers(t *testing.T) {
	in := sample{ID: "abc", Name: StringPtr("bread"), hidden: "x"}

	require.Equal(t, map[string]any{"id": "abc", "name": in.Name}, PatchMap(in))

	full := StructToMap(&in)
	require.Len(t, full, 3)
	require.Contains(t, full, "note")
}

func TestNanoID(t *testing.T) {
	id := NanoID()
	require.Len(t, id, NanoidSize)
	require.Regexp(t, `^[0-9a-z]+$`, id)
	require.Len(t, NanoIDSize(8), 8)
}

func TestTrimmedPtr(t *testing.T) {
	require.Nil(t, TrimmedPtr("   "))
	require.Equal(t, "x", PtrString(TrimmedPtr(" x ")))
	require.Equal(t, "", PtrString(nil))
}
