package grpcv1

import (
	"github.com/Egor213/AuditTrack/internal/metrics"
	"github.com/Egor213/AuditTrack/internal/service"
	"github.com/Egor213/AuditTrack/internal/viewer"
	"google.golang.org/grpc"
)

func RegisterServices(services *service.Services, counters *metrics.Counters, opts viewer.Options) func(s *grpc.Server) {
	return func(s *grpc.Server) {
		RegisterAuditViewerServer(s, NewLogController(services.Log, counters, opts))
	}
}
