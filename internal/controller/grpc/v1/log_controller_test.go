package grpcv1_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	grpcv1 "github.com/Egor213/AuditTrack/internal/controller/grpc/v1"
	"github.com/Egor213/AuditTrack/internal/domain"
	"github.com/Egor213/AuditTrack/internal/metrics"
	servicemocks "github.com/Egor213/AuditTrack/internal/mocks/service"
	"github.com/Egor213/AuditTrack/internal/repo/repotypes"
	"github.com/Egor213/AuditTrack/internal/service"
	"github.com/Egor213/AuditTrack/internal/viewer"
	"github.com/Egor213/AuditTrack/pkg/grpcserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startServer(t *testing.T, logService service.Log) *grpcv1.AuditViewerClient {
	t.Helper()

	listener := bufconn.Listen(1 << 20)
	services := &service.Services{Log: logService}
	opts := viewer.Options{PageSize: 10, ActorJoin: true, FetchTimeout: time.Second}

	srv, err := grpcserver.New(
		grpcv1.RegisterServices(services, metrics.NewTestCounters(), opts),
		grpcserver.WithListener(listener),
		grpcserver.WithUnaryInterceptor(grpcv1.LoggingInterceptor()),
	)
	require.NoError(t, err)
	t.Cleanup(srv.Shutdown)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(grpcserver.JSONCodec{})),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return grpcv1.NewAuditViewerClient(conn)
}

func TestLogController_ListLogs(t *testing.T) {
	actor := "6f1c1f0e-5d8c-4a34-9c55-2f3b7a0c1d2e"
	occurred := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	type mockBehavior func(m *servicemocks.MockLog)

	testCases := []struct {
		name         string
		req          *grpcv1.ListLogsRequest
		mockBehavior mockBehavior
		wantCode     codes.Code
		check        func(t *testing.T, resp *grpcv1.ListLogsResponse)
	}{
		{
			name: "second page with default size",
			req: &grpcv1.ListLogsRequest{
				Filter: grpcv1.Filter{ActionKind: "login", DateFrom: "2024-03-01"},
				Sort:   grpcv1.Sort{Field: "actor_id", Direction: "asc"},
				Page:   2,
			},
			mockBehavior: func(m *servicemocks.MockLog) {
				m.EXPECT().FetchLogs(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, q repotypes.LogQuery) (repotypes.LogPage, error) {
						assert.Equal(t, uint64(10), q.Limit)
						assert.Equal(t, uint64(10), q.Offset)
						assert.Equal(t, repotypes.FieldActorID, q.Order.Field)
						assert.False(t, q.Order.Descending)
						assert.True(t, q.HasConstraint(repotypes.FieldActionKind))
						assert.True(t, q.HasConstraint(repotypes.FieldOccurredAt))
						return repotypes.LogPage{
							Entries: []domain.LogEntry{{
								ID:         "42",
								ActorID:    &actor,
								Actor:      &domain.ActorSummary{ID: actor, Name: "Ada", LastName: "Lovelace", Department: "R&D"},
								ActionKind: domain.ActionLogin,
								EntityKind: "session",
								Outcome:    domain.OutcomeSuccess,
								OccurredAt: occurred,
							}},
							Total: 25,
						}, nil
					})
			},
			wantCode: codes.OK,
			check: func(t *testing.T, resp *grpcv1.ListLogsResponse) {
				assert.Equal(t, 25, resp.Total)
				assert.Equal(t, 2, resp.Page)
				assert.Equal(t, 3, resp.MaxPage)
				require.Len(t, resp.Entries, 1)
				assert.Equal(t, "Ada Lovelace", resp.Entries[0].ActorDisplay)
				assert.Equal(t, "R&D", resp.Entries[0].Actor.Department)
				assert.True(t, occurred.Equal(resp.Entries[0].OccurredAt))
			},
		},
		{
			name: "empty result still has one page",
			req:  &grpcv1.ListLogsRequest{},
			mockBehavior: func(m *servicemocks.MockLog) {
				m.EXPECT().FetchLogs(gomock.Any(), gomock.Any()).Return(repotypes.LogPage{}, nil)
			},
			wantCode: codes.OK,
			check: func(t *testing.T, resp *grpcv1.ListLogsResponse) {
				assert.Empty(t, resp.Entries)
				assert.Equal(t, 1, resp.Page)
				assert.Equal(t, 1, resp.MaxPage)
			},
		},
		{
			name: "bare end date covers the day, explicit start kept",
			req: &grpcv1.ListLogsRequest{
				Filter: grpcv1.Filter{DateFrom: "2024-03-01T00:00:00+02:00", DateTo: "2024-03-01"},
			},
			mockBehavior: func(m *servicemocks.MockLog) {
				m.EXPECT().FetchLogs(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, q repotypes.LogQuery) (repotypes.LogPage, error) {
						assert.Equal(t, []repotypes.Constraint{
							{Field: repotypes.FieldOccurredAt, Op: repotypes.OpGte, Value: time.Date(2024, 2, 29, 22, 0, 0, 0, time.UTC)},
							{Field: repotypes.FieldOccurredAt, Op: repotypes.OpLte, Value: time.Date(2024, 3, 1, 23, 59, 59, 999999999, time.UTC)},
						}, q.Constraints)
						return repotypes.LogPage{}, nil
					})
			},
			wantCode: codes.OK,
		},
		{
			name:         "unknown action kind",
			req:          &grpcv1.ListLogsRequest{Filter: grpcv1.Filter{ActionKind: "hack"}},
			mockBehavior: func(m *servicemocks.MockLog) {},
			wantCode:     codes.InvalidArgument,
		},
		{
			name:         "unknown sort field",
			req:          &grpcv1.ListLogsRequest{Sort: grpcv1.Sort{Field: "entity_id"}},
			mockBehavior: func(m *servicemocks.MockLog) {},
			wantCode:     codes.InvalidArgument,
		},
		{
			name:         "reversed date range",
			req:          &grpcv1.ListLogsRequest{Filter: grpcv1.Filter{DateFrom: "2024-03-02", DateTo: "2024-03-01"}},
			mockBehavior: func(m *servicemocks.MockLog) {},
			wantCode:     codes.InvalidArgument,
		},
		{
			name:         "malformed actor id",
			req:          &grpcv1.ListLogsRequest{Filter: grpcv1.Filter{ActorID: "bob"}},
			mockBehavior: func(m *servicemocks.MockLog) {},
			wantCode:     codes.InvalidArgument,
		},
		{
			name: "backend failure",
			req:  &grpcv1.ListLogsRequest{},
			mockBehavior: func(m *servicemocks.MockLog) {
				m.EXPECT().FetchLogs(gomock.Any(), gomock.Any()).Return(repotypes.LogPage{}, service.ErrCannotFetchLogs)
			},
			wantCode: codes.Unavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			logService := servicemocks.NewMockLog(ctrl)
			tc.mockBehavior(logService)

			client := startServer(t, logService)

			resp, err := client.ListLogs(context.Background(), tc.req)
			assert.Equal(t, tc.wantCode, status.Code(err))
			if tc.check != nil {
				require.NoError(t, err)
				tc.check(t, resp)
			}
		})
	}
}

func TestLogController_GetStats(t *testing.T) {
	older := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	latest := older.Add(24 * time.Hour)

	t.Run("latest bucket zero filled", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		logService := servicemocks.NewMockLog(ctrl)
		logService.EXPECT().ActivityStats(gomock.Any()).Return([]domain.ActivityStat{
			{Bucket: older, Actions: map[domain.ActionKind]domain.ActionTotals{domain.ActionLogin: {Total: 9}}},
			{Bucket: latest, Actions: map[domain.ActionKind]domain.ActionTotals{domain.ActionLogin: {Total: 3, Errors: 1}}},
		}, nil)

		resp, err := startServer(t, logService).GetStats(context.Background(), &grpcv1.GetStatsRequest{})
		require.NoError(t, err)
		require.NotNil(t, resp.Bucket)
		assert.True(t, latest.Equal(*resp.Bucket))
		require.Len(t, resp.Actions, len(domain.ActionKinds))

		for _, a := range resp.Actions {
			if a.ActionKind == string(domain.ActionLogin) {
				assert.Equal(t, 3, a.Total)
				assert.Equal(t, 1, a.Errors)
			} else {
				assert.Zero(t, a.Total)
			}
		}
	})

	t.Run("no buckets", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		logService := servicemocks.NewMockLog(ctrl)
		logService.EXPECT().ActivityStats(gomock.Any()).Return(nil, nil)

		resp, err := startServer(t, logService).GetStats(context.Background(), &grpcv1.GetStatsRequest{})
		require.NoError(t, err)
		assert.Nil(t, resp.Bucket)
		assert.Len(t, resp.Actions, len(domain.ActionKinds))
	})

	t.Run("backend failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		logService := servicemocks.NewMockLog(ctrl)
		logService.EXPECT().ActivityStats(gomock.Any()).Return(nil, errors.New("boom"))

		_, err := startServer(t, logService).GetStats(context.Background(), &grpcv1.GetStatsRequest{})
		assert.Equal(t, codes.Unavailable, status.Code(err))
	})
}
