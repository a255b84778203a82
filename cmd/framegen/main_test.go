package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/editor"
	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/upload"
)

const smallFrameConfig = `
log:
  level: error
upload:
  endpoint: ""
crop:
  output_size: 80
  mobile_output_size: 80
layout:
  frame_width: 320
  frame_height: 200
  avatar: {x: 10, y: 10, size: 80, radius: 6, stroke: "#66B2FF", line_width: 3}
  name: {x: 50, y: 120, max_width: 90, max_font_size: 20, min_font_size: 6, font_step: 2, fill: "#FF8A00", stroke: "#FFFFFF", min_stroke: 1, stroke_ratio: 0.1}
  ward: {x: 50, y: 150, width: 90, line_height: 10, font_size: 10, color: "#FFFFFF"}
  message: {x: 120, y: 30, width: 180, line_height: 14, font_size: 12, paragraph_gap: 2, color: "#FFFFFF"}
  watermark: {text: ""}
`

func TestRunWritesFrame(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(smallFrameConfig), 0o644))

	photo := image.NewRGBA(image.Rect(0, 0, 160, 120))
	draw.Draw(photo, photo.Bounds(), &image.Uniform{color.RGBA{0, 200, 0, 255}}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, photo))
	photoPath := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(photoPath, buf.Bytes(), 0o644))

	outDir := filepath.Join(dir, "out")
	sum, err := run(options{
		configPath: cfgPath,
		photoPath:  photoPath,
		fields:     editor.Fields{Name: "Lê Văn Tám", Message: "Xin chào"},
		outDir:     outDir,
	})
	require.NoError(t, err)
	assert.Equal(t, summary{written: 1}, sum)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "Le_Van_Tam_"))
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".png"))

	f, err := os.Open(filepath.Join(outDir, entries[0].Name()))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 320, 200), img.Bounds())

	c := color.RGBAModel.Convert(img.At(50, 50)).(color.RGBA)
	assert.Greater(t, c.G, uint8(180))
}

func TestRunMissingPhoto(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(smallFrameConfig), 0o644))

	_, err := run(options{configPath: cfgPath, photoPath: filepath.Join(dir, "nope.jpg"), outDir: filepath.Join(dir, "out")})
	assert.Error(t, err)
}

func TestRunRosterSkipsBadRows(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(smallFrameConfig), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not an image"), 0o644))

	csv := "Họ và tên,Chức vụ - Đơn vị,Ảnh\n" +
		"Phạm Văn Đồng,Đoàn viên,\n" +
		"Hoàng Thị Em,Bí thư,broken.jpg\n" +
		"Võ Thị Sáu,Ủy viên,\n"
	rosterPath := filepath.Join(dir, "roster.csv")
	require.NoError(t, os.WriteFile(rosterPath, []byte(csv), 0o644))

	outDir := filepath.Join(dir, "out")
	sum, err := run(options{configPath: cfgPath, rosterPath: rosterPath, only: "van", outDir: outDir})
	require.NoError(t, err)
	assert.Equal(t, summary{written: 1}, sum)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "Pham_Van_Dong_"))

	allDir := filepath.Join(dir, "all")
	sum, err = run(options{configPath: cfgPath, rosterPath: rosterPath, outDir: allDir})
	require.NoError(t, err)
	assert.Equal(t, summary{written: 2, skipped: 1}, sum)
	entries, err = os.ReadDir(allDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRunRosterUploadsEveryFrame(t *testing.T) {
	var (
		mu    sync.Mutex
		names []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p upload.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err == nil {
			mu.Lock()
			names = append(names, p.Name)
			mu.Unlock()
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := strings.Replace(smallFrameConfig, `  endpoint: ""`,
		"  endpoint: \""+srv.URL+"\"\n  per_minute: 1200\n  burst: 2", 1)
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	const rows = 8
	var csv strings.Builder
	csv.WriteString("name,role\n")
	want := make([]string, 0, rows)
	for i := 0; i < rows; i++ {
		name := fmt.Sprintf("Đại biểu %d", i+1)
		want = append(want, name)
		fmt.Fprintf(&csv, "%s,Đoàn viên\n", name)
	}
	rosterPath := filepath.Join(dir, "roster.csv")
	require.NoError(t, os.WriteFile(rosterPath, []byte(csv.String()), 0o644))

	sum, err := run(options{configPath: cfgPath, rosterPath: rosterPath, outDir: filepath.Join(dir, "out"), upload: true})
	require.NoError(t, err)
	assert.Equal(t, summary{written: rows, uploaded: rows}, sum)

	// run drains the uploader before returning
	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, want, names)
}
