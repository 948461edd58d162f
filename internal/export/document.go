package export

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Egor213/AuditTrack/internal/domain"
)

//go:embed templates/logs.html
var templatesFS embed.FS

const (
	convertHTMLPath   = "/forms/chromium/convert/html"
	errorBodyLimit    = 4 << 10
	defaultRenderWait = 30 * time.Second
)

type documentData struct {
	Title       string
	GeneratedAt time.Time
	Entries     []domain.LogEntry
}

// GotenbergRenderer renders entries as an HTML table and converts it to PDF
// through a Gotenberg compatible endpoint.
type GotenbergRenderer struct {
	endpoint string
	client   *http.Client
	tpl      *template.Template
	now      func() time.Time
}

func NewGotenbergRenderer(endpoint string, client *http.Client) (*GotenbergRenderer, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, ErrRendererUnavailable
	}
	if client == nil {
		client = &http.Client{Timeout: defaultRenderWait}
	}

	tpl, err := template.New("logs.html").Funcs(template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04:05")
		},
	}).ParseFS(templatesFS, "templates/logs.html")
	if err != nil {
		return nil, fmt.Errorf("parse logs template: %w", err)
	}

	return &GotenbergRenderer{
		endpoint: endpoint,
		client:   client,
		tpl:      tpl,
		now:      time.Now,
	}, nil
}

func (r *GotenbergRenderer) Render(ctx context.Context, entries []domain.LogEntry) ([]byte, error) {
	var html bytes.Buffer
	data := documentData{
		Title:       "Admin logs",
		GeneratedAt: r.now(),
		Entries:     entries,
	}
	if err := r.tpl.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, &html); err != nil {
		return nil, err
	}
	if err := writer.WriteField("landscape", "true"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+convertHTMLPath, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrRendererUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, fmt.Errorf("renderer response %d: %s", resp.StatusCode, string(msg))
	}

	return io.ReadAll(resp.Body)
}
