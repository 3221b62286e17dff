package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMapScan(t *testing.T) {
	t.Run("bytes", func(t *testing.T) {
		var m JSONMap
		require.NoError(t, m.Scan([]byte(`{"city": "Dubai"}`)))
		assert.Equal(t, "Dubai", m["city"])
	})

	t.Run("string", func(t *testing.T) {
		var m JSONMap
		require.NoError(t, m.Scan(`{"budget_max": 300000}`))
		assert.Equal(t, float64(300000), m["budget_max"])
	})

	t.Run("nil clears", func(t *testing.T) {
		m := JSONMap{"city": "Dubai"}
		require.NoError(t, m.Scan(nil))
		assert.Nil(t, m)
	})

	t.Run("unexpected driver type errors", func(t *testing.T) {
		var m JSONMap
		err := m.Scan(42)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot scan int")
	})
}

func TestJSONMapValue(t *testing.T) {
	var nilMap JSONMap
	v, err := nilMap.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	m := JSONMap{"city": "Dubai"}
	v, err = m.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"city": "Dubai"}`, string(v.([]byte)))
}
