//go:build integration

package rod_test

import (
	"context"
	"testing"

	"github.com/akarpov/shelfwatch/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserManager_PageLifecycle(t *testing.T) {
	t.Parallel()

	bm, err := rod.NewBrowserManager(rod.WithMaxSessions(1))
	require.NoError(t, err)
	defer bm.Close()

	page, release, err := bm.Page(context.Background())
	require.NoError(t, err)
	require.NotNil(t, page)
	release()

	// The single session slot must be free again after release.
	_, release2, err := bm.Page(context.Background())
	require.NoError(t, err)
	release2()
}

func TestBrowserManager_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	bm, err := rod.NewBrowserManager()
	require.NoError(t, err)

	require.NoError(t, bm.Close())
	assert.NoError(t, bm.Close())
	assert.Zero(t, bm.LauncherPID())
}

func TestBrowserManager_SessionBoundRespectsContext(t *testing.T) {
	t.Parallel()

	bm, err := rod.NewBrowserManager(rod.WithMaxSessions(1))
	require.NoError(t, err)
	defer bm.Close()

	_, release, err := bm.Page(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = bm.Page(ctx)
	require.Error(t, err)
}
