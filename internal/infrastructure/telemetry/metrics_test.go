package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRealtimeMetricsOnNoopProvider(t *testing.T) {
	shutdown, err := Init(context.Background(), "", "test")
	require.NoError(t, err)
	defer func() { require.NoError(t, shutdown(context.Background())) }()

	m, err := NewRealtimeMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.Connected(ctx)
	m.Disconnected(ctx, true)
	m.Joined(ctx, "ok")
	m.Left(ctx, "not_participant")
	m.RosterQueried(ctx)
}

func TestNilRealtimeMetricsIsSafe(t *testing.T) {
	var m *RealtimeMetrics
	m.Connected(context.Background())
	m.Joined(context.Background(), "ok")
}
