package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salcon83/lifebooks-ai/internal/apperr"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	catalog, err := DefaultCatalog()
	require.NoError(t, err)

	types := catalog.Types()
	ids := make([]string, 0, len(types))
	for _, st := range types {
		ids = append(ids, st.ID)
		assert.NotEmpty(t, st.Name)
		assert.GreaterOrEqual(t, len(st.Prompts), 5, st.ID)
		assert.LessOrEqual(t, len(st.Prompts), 9, st.ID)
	}

	assert.Equal(t, []string{"autobiography", "memoir", "family-history", "travel", "professional", "custom"}, ids)

	memoir, err := catalog.Lookup("memoir")
	require.NoError(t, err)
	assert.Len(t, memoir.Prompts, 8)
	assert.Equal(t, "What specific period or theme in your life does this memoir focus on?", memoir.Prompts[0])

	autobiography, err := catalog.Lookup("autobiography")
	require.NoError(t, err)
	assert.Len(t, autobiography.Prompts, 9)
}

func TestCatalog_LookupUnknown(t *testing.T) {
	t.Parallel()

	catalog, err := DefaultCatalog()
	require.NoError(t, err)

	_, err = catalog.Lookup("poetry")
	require.ErrorIs(t, err, apperr.ErrUnknownStoryType)
}

func TestCatalog_IsImmutable(t *testing.T) {
	t.Parallel()

	catalog, err := DefaultCatalog()
	require.NoError(t, err)

	st, err := catalog.Lookup("travel")
	require.NoError(t, err)
	st.Prompts[0] = "changed"

	again, err := catalog.Lookup("travel")
	require.NoError(t, err)
	assert.Equal(t, "What inspired you to take this particular journey?", again.Prompts[0])
}

func TestParseCatalog_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ``},
		{name: "too few prompts", data: `
[[story_types]]
id = "short"
name = "Short"
prompts = ["a", "b"]
`},
		{name: "duplicate id", data: `
[[story_types]]
id = "x"
name = "X"
prompts = ["1", "2", "3", "4", "5"]

[[story_types]]
id = "x"
name = "X again"
prompts = ["1", "2", "3", "4", "5"]
`},
		{name: "missing id", data: `
[[story_types]]
name = "Nameless"
prompts = ["1", "2", "3", "4", "5"]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseCatalog([]byte(tt.data))
			require.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}

func TestParseCatalog_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ParseCatalog([]byte("[[story_types]\nid = "))
	require.Error(t, err)
}
