package webui

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clinprep/internal/config"
	"clinprep/internal/datasource/compression"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const export = "Patient ID,Sex ,Sepsis,Number of Days in Critical Care\n" +
	"P1,Male,Yes,5\n" +
	"P2,Female,no,-3\n" +
	"P3,,YES,8\n"

// upload builds a multipart request carrying body as "file".
func upload(t *testing.T, path, name string, body []byte, mode string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(body)
	require.NoError(t, err)
	if mode != "" {
		require.NoError(t, mw.WriteField("mode", mode))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	s := NewServer(Config{Logger: zerolog.Nop()})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `enctype="multipart/form-data"`)
	assert.Contains(t, rec.Body.String(), "64 MiB")

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIProbe_Modes(t *testing.T) {
	s := NewServer(Config{Logger: zerolog.Nop()})

	cases := []struct {
		mode, ct, want string
	}{
		{"", "text/plain; charset=utf-8", "COLUMN"},
		{"json", "application/json", `"normalized": "Sex"`},
		{"suggest", "application/json", `"kind": "repair_negatives"`},
	}
	for _, c := range cases {
		t.Run("mode="+c.mode, func(t *testing.T) {
			rec := serve(s, upload(t, "/api/probe", "admissions.csv", []byte(export), c.mode))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, c.ct, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), c.want)
		})
	}
}

func TestAPIProbe_SuggestIsValidConfig(t *testing.T) {
	s := NewServer(Config{Job: "icu", Logger: zerolog.Nop()})
	rec := serve(s, upload(t, "/api/probe", "icu.csv", []byte(export), "suggest"))
	require.Equal(t, http.StatusOK, rec.Code)

	p, err := config.Decode(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "icu", p.Job)
	assert.Equal(t, "icu.csv", p.Source.File.Path)
	assert.False(t, config.HasErrors(config.ValidatePipeline(p)))
}

func TestAPIProbe_CompressedUpload(t *testing.T) {
	var gz bytes.Buffer
	w, err := compression.NewWriter(compression.Gzip, nopWriteCloser{&gz})
	require.NoError(t, err)
	_, err = w.Write([]byte(export))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	s := NewServer(Config{Logger: zerolog.Nop()})
	rec := serve(s, upload(t, "/api/probe", "admissions.csv.gz", gz.Bytes(), "json"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cols []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cols))
	assert.Len(t, cols, 4)
}

func TestAPIProbe_Errors(t *testing.T) {
	s := NewServer(Config{Logger: zerolog.Nop(), MaxUpload: 1 << 10})

	cases := []struct {
		name string
		req  *http.Request
		want string
	}{
		{"unknown extension", upload(t, "/api/probe", "admissions.pdf", []byte(export), ""), "cannot infer parser kind"},
		{"unknown mode", upload(t, "/api/probe", "a.csv", []byte(export), "yaml"), "unknown mode"},
		{"too large", upload(t, "/api/probe", "a.csv", bytes.Repeat([]byte("x,y\n"), 1<<10), ""), "bad form"},
		{"no file", httptest.NewRequest(http.MethodPost, "/api/probe", strings.NewReader("")), "probe failed"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := serve(s, c.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), c.want)
		})
	}
}

func TestProbeForm_RendersResultAndError(t *testing.T) {
	s := NewServer(Config{Logger: zerolog.Nop()})

	rec := serve(s, upload(t, "/probe", "admissions.csv", []byte(export), "text"))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<pre>COLUMN")
	assert.Contains(t, body, "admissions.csv")
	assert.Contains(t, body, `value="text" selected`)

	rec = serve(s, upload(t, "/probe", "admissions.doc", []byte(export), ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="error"`)
}

type nopWriteCloser struct{ *bytes.Buffer }

func (nopWriteCloser) Close() error { return nil }
