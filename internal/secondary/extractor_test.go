package secondary

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractNumber(t *testing.T) {
	v, err := Extract([]byte(`{"age": 42}`), "age")
	require.NoError(t, err)
	require.Equal(t, "42", v)
}

func TestExtractFloatKeepsDecimal(t *testing.T) {
	v, err := Extract([]byte(`{"score": 3.5}`), "score")
	require.NoError(t, err)
	require.Equal(t, "3.5", v)
}

func TestExtractString(t *testing.T) {
	v, err := Extract([]byte(`{"name": "alice"}`), "name")
	require.NoError(t, err)
	require.Equal(t, "alice", v)
}

func TestExtractBool(t *testing.T) {
	v, err := Extract([]byte(`{"active": true}`), "active")
	require.NoError(t, err)
	require.Equal(t, "true", v)
}

func TestExtractFailsOnEmptyKey(t *testing.T) {
	_, err := Extract([]byte(`{"age": 1}`), "")
	require.Error(t, err)
}

func TestExtractFailsOnMissingAttribute(t *testing.T) {
	_, err := Extract([]byte(`{"age": 1}`), "height")
	require.Error(t, err)
}

func TestExtractFailsOnNullAttribute(t *testing.T) {
	_, err := Extract([]byte(`{"age": null}`), "age")
	require.Error(t, err)
}

func TestExtractFailsOnUnsupportedType(t *testing.T) {
	_, err := Extract([]byte(`{"tags": ["a","b"]}`), "tags")
	require.Error(t, err)
}

func TestExtractFailsOnMalformedJSON(t *testing.T) {
	_, err := Extract([]byte(`not json`), "age")
	require.Error(t, err)
}
