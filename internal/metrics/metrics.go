package metrics

import "github.com/prometheus/client_golang/prometheus"

type Counter interface {
	Inc(labels ...string)
}

type Counters struct {
	// LogQueries is labelled by outcome: ok, failed, stale.
	LogQueries Counter
	Exports    Counter
	AuditWrite Counter

	GrpcRequests Counter
}

type PrometheusCounter struct {
	counter *prometheus.CounterVec
}

func newCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, labels)
}

func NewPrometheusCounter(name, help string, labels []string) *PrometheusCounter {
	c := &PrometheusCounter{counter: newCounterVec(name, help, labels)}
	prometheus.MustRegister(c.counter)
	return c
}

func (p *PrometheusCounter) Inc(labels ...string) {
	p.counter.WithLabelValues(labels...).Inc()
}

type counterSpec struct {
	name   string
	help   string
	labels []string
}

var specs = struct {
	logQueries, exports, auditWrites, grpcRequests counterSpec
}{
	logQueries:   counterSpec{"audit_log_queries_total", "Audit log page queries by outcome", []string{"outcome"}},
	exports:      counterSpec{"audit_exports_total", "Audit log exports by format and status", []string{"format", "status"}},
	auditWrites:  counterSpec{"audit_writes_total", "Audit records written by the viewer itself", []string{"status"}},
	grpcRequests: counterSpec{"grpc_requests_total", "Number of gRPC requests", []string{"method", "status"}},
}

func New() *Counters {
	return &Counters{
		LogQueries:   NewPrometheusCounter(specs.logQueries.name, specs.logQueries.help, specs.logQueries.labels),
		Exports:      NewPrometheusCounter(specs.exports.name, specs.exports.help, specs.exports.labels),
		AuditWrite:   NewPrometheusCounter(specs.auditWrites.name, specs.auditWrites.help, specs.auditWrites.labels),
		GrpcRequests: NewPrometheusCounter(specs.grpcRequests.name, specs.grpcRequests.help, specs.grpcRequests.labels),
	}
}

// NewTestCounters registers on a private registry so tests can build many.
func NewTestCounters() *Counters {
	reg := prometheus.NewRegistry()

	build := func(s counterSpec) *PrometheusCounter {
		c := &PrometheusCounter{counter: newCounterVec(s.name, s.help, s.labels)}
		reg.MustRegister(c.counter)
		return c
	}

	return &Counters{
		LogQueries:   build(specs.logQueries),
		Exports:      build(specs.exports),
		AuditWrite:   build(specs.auditWrites),
		GrpcRequests: build(specs.grpcRequests),
	}
}
