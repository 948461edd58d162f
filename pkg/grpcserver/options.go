package grpcserver

import (
	"net"
	"time"

	"google.golang.org/grpc"
)

type Option func(*Server)

func WithPort(port string) Option {
	return func(s *Server) {
		s.addr = net.JoinHostPort("", port)
	}
}

// WithListener overrides address based listening, used with bufconn in tests.
func WithListener(l net.Listener) Option {
	return func(s *Server) {
		s.listener = l
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

func WithUnaryInterceptor(i grpc.UnaryServerInterceptor) Option {
	return func(s *Server) {
		s.interceptors = append(s.interceptors, i)
	}
}
