// Package export turns the currently loaded page of audit entries into a
// downloadable artifact and records the export itself as an audit action.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Egor213/AuditTrack/internal/domain"
	"github.com/Egor213/AuditTrack/internal/metrics"
	log "github.com/sirupsen/logrus"
)

type Format string

const (
	FormatFlatText Format = "flat-text"
	FormatDocument Format = "document"
)

var (
	ErrExport              = errors.New("export failed")
	ErrUnknownFormat       = errors.New("unknown export format")
	ErrRendererUnavailable = errors.New("document renderer unavailable")
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatFlatText, FormatDocument:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) extension() string {
	if f == FormatDocument {
		return "pdf"
	}
	return "csv"
}

func (f Format) contentType() string {
	if f == FormatDocument {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Error is an export that could not be produced. It never affects loaded entries.
type Error struct {
	Format Format
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export %s: %v", e.Format, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrExport, e.Err}
}

type DocumentRenderer interface {
	Render(ctx context.Context, entries []domain.LogEntry) ([]byte, error)
}

type Recorder interface {
	RecordAction(ctx context.Context, action domain.AuditAction) (string, error)
}

const (
	defaultAuditTimeout = 5 * time.Second
	filenamePrefix      = "admin_logs_"
)

type Engine struct {
	renderer     DocumentRenderer
	recorder     Recorder
	counters     *metrics.Counters
	auditTimeout time.Duration
	now          func() time.Time

	pending sync.WaitGroup
}

type Option func(*Engine)

func WithAuditTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.auditTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine builds an engine. A nil renderer disables the document format,
// a nil recorder disables the audit record.
func NewEngine(renderer DocumentRenderer, recorder Recorder, cnt *metrics.Counters, opts ...Option) *Engine {
	e := &Engine{
		renderer:     renderer,
		recorder:     recorder,
		counters:     cnt,
		auditTimeout: defaultAuditTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export serializes entries exactly as given. Callers pass the loaded page only.
func (e *Engine) Export(ctx context.Context, entries []domain.LogEntry, format Format, identity domain.Identity) (Artifact, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return Artifact{}, &Error{Format: format, Err: err}
	}

	e.record(ctx, format, len(entries), identity)

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatFlatText:
		data, err = FlatText(entries)
	case FormatDocument:
		if e.renderer == nil {
			err = ErrRendererUnavailable
			break
		}
		data, err = e.renderer.Render(ctx, entries)
	}

	if err != nil {
		e.counters.Exports.Inc(string(format), "failed")
		log.WithFields(log.Fields{
			"format":  format,
			"entries": len(entries),
			"error":   err,
		}).Error("Export failed")
		return Artifact{}, &Error{Format: format, Err: err}
	}

	e.counters.Exports.Inc(string(format), "ok")
	return Artifact{
		Filename:    filenamePrefix + e.now().UTC().Format(time.RFC3339) + "." + format.extension(),
		ContentType: format.contentType(),
		Data:        data,
	}, nil
}

// Wait blocks until every pending audit record has finished.
func (e *Engine) Wait() {
	e.pending.Wait()
}

// record writes the export audit action in the background. Its failure is
// only logged and its lifetime is detached from the caller's context.
func (e *Engine) record(ctx context.Context, format Format, entries int, identity domain.Identity) {
	if e.recorder == nil {
		return
	}

	action := domain.AuditAction{
		ActorID:    identity.ActorID,
		ActionKind: domain.ActionExport,
		EntityKind: "logs",
		Details: domain.NewDetails(
			domain.StringField("format", string(format)),
			domain.IntField("entries", entries),
		),
		SourceAddress: identity.SourceAddress,
		ClientAgent:   identity.ClientAgent,
		Outcome:       domain.OutcomeSuccess,
	}

	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.auditTimeout)
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		defer cancel()

		if _, err := e.recorder.RecordAction(auditCtx, action); err != nil {
			log.WithFields(log.Fields{
				"format": format,
				"error":  err,
			}).Warn("Export audit record not written")
		}
	}()
}
