package link

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPipe(t *testing.T) {
	a, b := NewPipe(hwA, hwB)
	require.Equal(t, hwA, a.HardwareAddr())
	require.Equal(t, hwB, b.HardwareAddr())

	frame := []byte{1, 2, 3}
	require.NoError(t, a.WriteFrame(frame))
	frame[0] = 9

	got, err := b.ReadFrame(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, got)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = a.ReadFrame(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPipeClose(t *testing.T) {
	a, b := NewPipe(hwA, hwB)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	require.ErrorIs(t, a.WriteFrame([]byte{1}), ErrClosed)
	_, err := b.ReadFrame(context.Background())
	require.ErrorIs(t, err, ErrClosed)
}
