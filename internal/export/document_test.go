package export_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Egor213/AuditTrack/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGotenbergRenderer_Render(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")

		require.NoError(t, r.ParseMultipartForm(10<<20))

		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "index.html", header.Filename)

		html, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Contains(t, string(html), "Ada Lovelace")
		assert.Contains(t, string(html), "System")
		assert.Contains(t, string(html), "R&amp;D")
		assert.Contains(t, string(html), "2024-03-05 07:30:00")

		_, _ = w.Write([]byte("MOCK-PDF"))
	}))
	defer srv.Close()

	renderer, err := export.NewGotenbergRenderer(srv.URL+"/", srv.Client())
	require.NoError(t, err)

	data, err := renderer.Render(context.Background(), sampleEntries())
	require.NoError(t, err)
	assert.Equal(t, "MOCK-PDF", string(data))
}

func TestGotenbergRenderer_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("chromium down"))
	}))
	defer srv.Close()

	renderer, err := export.NewGotenbergRenderer(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = renderer.Render(context.Background(), sampleEntries())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "chromium down")
}

func TestGotenbergRenderer_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	renderer, err := export.NewGotenbergRenderer(url, nil)
	require.NoError(t, err)

	_, err = renderer.Render(context.Background(), sampleEntries())
	assert.ErrorIs(t, err, export.ErrRendererUnavailable)
}

func TestNewGotenbergRenderer_EmptyEndpoint(t *testing.T) {
	_, err := export.NewGotenbergRenderer("  ", nil)
	assert.ErrorIs(t, err, export.ErrRendererUnavailable)
}
