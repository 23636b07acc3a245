package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RealtimeMetrics groups the counters recorded by the socket layer.
type RealtimeMetrics struct {
	connects      metric.Int64Counter
	disconnects   metric.Int64Counter
	joins         metric.Int64Counter
	leaves        metric.Int64Counter
	rosterQueries metric.Int64Counter
}

// NewRealtimeMetrics registers the counters on the global meter provider.
func NewRealtimeMetrics() (*RealtimeMetrics, error) {
	meter := otel.Meter("go-presence/realtime")

	connects, err := meter.Int64Counter("realtime_connects_total",
		metric.WithDescription("Socket connections that completed the presence handshake"))
	if err != nil {
		return nil, err
	}
	disconnects, err := meter.Int64Counter("realtime_disconnects_total",
		metric.WithDescription("Socket disconnections processed by presence tracking"))
	if err != nil {
		return nil, err
	}
	joins, err := meter.Int64Counter("realtime_room_joins_total",
		metric.WithDescription("join-room requests by outcome"))
	if err != nil {
		return nil, err
	}
	leaves, err := meter.Int64Counter("realtime_room_leaves_total",
		metric.WithDescription("leave-room requests by outcome"))
	if err != nil {
		return nil, err
	}
	rosterQueries, err := meter.Int64Counter("realtime_roster_queries_total",
		metric.WithDescription("get-online-users requests"))
	if err != nil {
		return nil, err
	}

	return &RealtimeMetrics{
		connects:      connects,
		disconnects:   disconnects,
		joins:         joins,
		leaves:        leaves,
		rosterQueries: rosterQueries,
	}, nil
}

func (m *RealtimeMetrics) Connected(ctx context.Context) {
	if m == nil {
		return
	}
	m.connects.Add(ctx, 1)
}

func (m *RealtimeMetrics) Disconnected(ctx context.Context, removed bool) {
	if m == nil {
		return
	}
	m.disconnects.Add(ctx, 1, metric.WithAttributes(attribute.Bool("removed", removed)))
}

func (m *RealtimeMetrics) Joined(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.joins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *RealtimeMetrics) Left(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.leaves.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *RealtimeMetrics) RosterQueried(ctx context.Context) {
	if m == nil {
		return
	}
	m.rosterQueries.Add(ctx, 1)
}
