package util

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripDiacritics(t *testing.T) {
	assert.Equal(t, "Nguyen Van A", StripDiacritics("Nguyễn Văn A"))
	assert.Equal(t, "Dai hoi Doan", StripDiacritics("Đại hội Đoàn"))
	assert.Equal(t, "Bi thu - Doan Truong", StripDiacritics("Bí thư - Đoàn Trường"))
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Nguyễn Văn A":      "Nguyen_Van_A",
		"  Trần   Thị  Bé ": "Tran_Thi_Be",
		"Lê/Văn:Hùng?":      "LeVanHung",
		"!!! ???":           "",
		"":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), "input %q", in)
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2025, 10, 3, 14, 5, 9, 0, time.Local)
	name := ExportFilename("Nguyễn Văn A", "png", now, "loi-nhan.png")
	assert.Equal(t, "Nguyen_Van_A_20251003-140509.png", name)
	assert.Regexp(t, regexp.MustCompile(`^Nguyen_Van_A_\d{8}-\d{6}\.png$`), name)

	assert.Equal(t, "loi-nhan.png", ExportFilename("", "png", now, "loi-nhan.png"))
	assert.Equal(t, "loi-nhan.png", ExportFilename("???", "png", now, "loi-nhan.png"))
}

func TestSaveFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := SaveFile(dir, "../escape.png", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestGetBytesAndPostJSON(t *testing.T) {
	var posted string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if r.URL.Path == "/missing" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte("frame"))
		case http.MethodPost:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			b, _ := io.ReadAll(r.Body)
			posted = string(b)
			w.WriteHeader(http.StatusAccepted)
		}
	}))
	defer srv.Close()

	client := NewClient(time.Second)
	ctx := context.Background()

	body, err := GetBytes(ctx, client, srv.URL+"/frame.png")
	require.NoError(t, err)
	assert.Equal(t, "frame", string(body))

	_, err = GetBytes(ctx, client, srv.URL+"/missing")
	assert.Error(t, err)

	status, err := PostJSON(ctx, client, srv.URL, []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, `{"a":1}`, posted)
}
