package workdir_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salcon83/lifebooks-ai/internal/config"
	"github.com/salcon83/lifebooks-ai/internal/workdir"
)

func TestResolveIn(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	p := workdir.ResolveIn(root, &config.Config{})
	assert.Equal(t, filepath.Join(root, "lifebooks.db"), p.Database)
	assert.Equal(t, filepath.Join(root, "exports"), p.Exports)

	p = workdir.ResolveIn(root, &config.Config{DatabasePath: "/data/l.db", ExportDir: "/data/out"})
	assert.Equal(t, "/data/l.db", p.Database)
	assert.Equal(t, "/data/out", p.Exports)
}

func TestPrepAndLock(t *testing.T) {
	t.Parallel()

	p := workdir.ResolveIn(filepath.Join(t.TempDir(), "lifebooks"), nil)
	require.NoError(t, workdir.Prep(p))
	assert.DirExists(t, p.Exports)

	unlock, err := workdir.Lock(p)
	require.NoError(t, err)

	_, err = workdir.Lock(p)
	require.ErrorIs(t, err, workdir.ErrLocked)

	require.NoError(t, unlock())

	unlock, err = workdir.Lock(p)
	require.NoError(t, err)
	require.NoError(t, unlock())
}
