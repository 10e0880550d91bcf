package lock_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flibusta-go/libupdater/internal/lock"
	"github.com/flibusta-go/libupdater/internal/platform/apperr"
)

func TestInProcess_SecondAcquireRejected(t *testing.T) {
	guard := lock.NewInProcess()

	release, err := guard.TryAcquire(context.Background())
	require.NoError(t, err)
	require.NotNil(t, release)

	_, err = guard.TryAcquire(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeAlreadyRunning))

	release()

	release2, err := guard.TryAcquire(context.Background())
	require.NoError(t, err)
	release2()
}
