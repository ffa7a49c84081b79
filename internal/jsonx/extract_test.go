package jsonx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractStrings(t *testing.T) {
	t.Run("extracts array surrounded by prose", func(t *testing.T) {
		text := `noise [{"response":"a"},{"response":"b"}] trailing`

		values, ok := ExtractStrings(text, "response")

		require.True(t, ok)
		assert.Equal(t, []string{"a", "b"}, values)
	})

	t.Run("returns empty without error when no array present", func(t *testing.T) {
		values, ok := ExtractStrings("the model declined to answer", "response")

		assert.False(t, ok)
		assert.Empty(t, values)
	})

	t.Run("drops elements missing the field", func(t *testing.T) {
		text := `[{"response":"keep"},{"other":"x"},{"response":"also"}]`

		values, ok := ExtractStrings(text, "response")

		require.True(t, ok)
		assert.Equal(t, []string{"keep", "also"}, values)
	})

	t.Run("drops elements with non-string field", func(t *testing.T) {
		text := `[{"response":42},{"response":"good"}]`

		values, ok := ExtractStrings(text, "response")

		require.True(t, ok)
		assert.Equal(t, []string{"good"}, values)
	})

	t.Run("ignores brackets inside string values", func(t *testing.T) {
		text := `here: [{"response":"array[0] is fine"}] done`

		values, ok := ExtractStrings(text, "response")

		require.True(t, ok)
		assert.Equal(t, []string{"array[0] is fine"}, values)
	})
}

func TestExtractArray(t *testing.T) {
	t.Run("finds fenced array in markdown output", func(t *testing.T) {
		text := "Here you go:\n```json\n[{\"response\":\"a\"}]\n```\n"

		raws, ok := ExtractArray(text)

		require.True(t, ok)
		assert.Len(t, raws, 1)
	})

	t.Run("handles nested arrays", func(t *testing.T) {
		text := `prefix [[1,2],[3,4]] suffix`

		raws, ok := ExtractArray(text)

		require.True(t, ok)
		assert.Len(t, raws, 2)
	})

	t.Run("skips unbalanced bracket before real array", func(t *testing.T) {
		// The '[' in the citation never closes as valid JSON but the
		// real array after it must still be found.
		text := `ref [12, then the data: [{"response":"x"}]`

		raws, ok := ExtractArray(text)

		require.True(t, ok)
		require.Len(t, raws, 1)
		assert.JSONEq(t, `{"response":"x"}`, string(raws[0]))
	})

	t.Run("handles escaped quotes inside strings", func(t *testing.T) {
		text := `[{"response":"say \"hi\" [ok]"}]`

		raws, ok := ExtractArray(text)

		require.True(t, ok)
		assert.Len(t, raws, 1)
	})

	t.Run("empty array is a valid extraction", func(t *testing.T) {
		raws, ok := ExtractArray("nothing matched: []")

		require.True(t, ok)
		assert.Empty(t, raws)
	})
}

func TestExtractObjects(t *testing.T) {
	t.Run("parses objects and keeps all fields", func(t *testing.T) {
		text := `sure: [{"situation":"pod down","response":"restart it"}]`

		objs, ok := ExtractObjects(text)

		require.True(t, ok)
		require.Len(t, objs, 1)
		assert.Equal(t, "pod down", objs[0]["situation"])
		assert.Equal(t, "restart it", objs[0]["response"])
	})

	t.Run("skips non-object elements", func(t *testing.T) {
		text := `[{"response":"keep"}, "stray string", 7]`

		objs, ok := ExtractObjects(text)

		require.True(t, ok)
		require.Len(t, objs, 1)
		assert.Equal(t, "keep", objs[0]["response"])
	})

	t.Run("no array means no objects", func(t *testing.T) {
		objs, ok := ExtractObjects("I cannot produce JSON today")

		assert.False(t, ok)
		assert.Nil(t, objs)
	})
}
