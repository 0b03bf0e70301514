package rest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/opentoclose-go/apierr"
	"github.com/yourorg/opentoclose-go/rest"
)

func TestAsRecord(t *testing.T) {
	direct := map[string]any{"id": float64(1), "name": "a"}
	got, err := rest.AsRecord(direct, "/x")
	require.NoError(t, err)
	assert.Equal(t, rest.Record(direct), got)

	wrapped := map[string]any{"data": map[string]any{"name": "b"}}
	got, err = rest.AsRecord(wrapped, "/x")
	require.NoError(t, err)
	assert.Equal(t, rest.Record{"name": "b"}, got)

	// data holding a non-object degrades to empty, not an error
	got, err = rest.AsRecord(map[string]any{"data": []any{}}, "/x")
	require.NoError(t, err)
	assert.Empty(t, got)

	// a plain object without id or data passes through
	plain := map[string]any{"ok": true}
	got, err = rest.AsRecord(plain, "/x")
	require.NoError(t, err)
	assert.Equal(t, rest.Record(plain), got)

	_, err = rest.AsRecord([]any{}, "/x")
	var derr *apierr.DataFormatError
	require.ErrorAs(t, err, &derr)
}

func TestAsRecords(t *testing.T) {
	list := []any{map[string]any{"id": float64(1)}, map[string]any{"id": float64(2)}}
	got, err := rest.AsRecords(list, "/x")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	wrapped := map[string]any{"data": list}
	got, err = rest.AsRecords(wrapped, "/x")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// single object with id wraps into a one-element list
	got, err = rest.AsRecords(map[string]any{"id": float64(3)}, "/x")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, float64(3), got[0]["id"])

	// empty object means empty list
	got, err = rest.AsRecords(map[string]any{}, "/x")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = rest.AsRecords("nope", "/x")
	var derr *apierr.DataFormatError
	require.ErrorAs(t, err, &derr)
}
