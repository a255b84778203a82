package upload

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/config"
)

type recorder struct {
	mu        sync.Mutex
	bodies    []Payload
	ctypes    []string
	status    int
	hangUntil chan struct{}
}

func (rec *recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if rec.hangUntil != nil {
		<-rec.hangUntil
	}
	data, _ := io.ReadAll(r.Body)
	var p Payload
	_ = json.Unmarshal(data, &p)

	rec.mu.Lock()
	rec.bodies = append(rec.bodies, p)
	rec.ctypes = append(rec.ctypes, r.Header.Get("Content-Type"))
	rec.mu.Unlock()

	if rec.status != 0 {
		w.WriteHeader(rec.status)
	}
	_, _ = w.Write([]byte("ok"))
}

func (rec *recorder) received() []Payload {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]Payload(nil), rec.bodies...)
}

func testConfig(endpoint string) config.UploadConfig {
	return config.UploadConfig{Endpoint: endpoint, Timeout: 2 * time.Second, PerMinute: 600, Burst: 10}
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,AQID", DataURL("image/png", []byte{1, 2, 3}))
}

func TestSendPostsPayload(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	u := New(testConfig(srv.URL))
	p := Payload{
		Name:        "Nguyễn Văn A",
		RoleUnit:    "Bí thư",
		Message:     "Chúc mừng",
		Base64Image: DataURL("image/png", []byte("png")),
		Filename:    "Nguyen_Van_A_20250101-120000.png",
		MimeType:    "image/png",
		UserAgent:   "test-agent",
	}
	require.True(t, u.Send(p))
	u.Wait()

	got := rec.received()
	require.Len(t, got, 1)
	assert.Equal(t, p, got[0])
	rec.mu.Lock()
	assert.Equal(t, []string{"application/json"}, rec.ctypes)
	rec.mu.Unlock()
}

func TestSendIgnoresServerErrors(t *testing.T) {
	rec := &recorder{status: http.StatusInternalServerError}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	u := New(testConfig(srv.URL))
	assert.True(t, u.Send(Payload{Filename: "a.png"}))
	u.Wait()
	assert.Len(t, rec.received(), 1)
}

func TestSendDoesNotBlockCaller(t *testing.T) {
	rec := &recorder{hangUntil: make(chan struct{})}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	u := New(testConfig(srv.URL))
	done := make(chan struct{})
	go func() {
		u.Send(Payload{Filename: "slow.png"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on the endpoint")
	}
	close(rec.hangUntil)
	u.Wait()
	assert.Len(t, rec.received(), 1)
}

func TestSendUnreachableEndpointOnlyLogs(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	u := New(testConfig(url))
	assert.True(t, u.Send(Payload{Filename: "x.png"}))
	u.Wait()
}

func TestDisabledUploader(t *testing.T) {
	u := New(testConfig(""))
	assert.False(t, u.Enabled())
	assert.False(t, u.Send(Payload{Filename: "x.png"}))
	u.Wait()
}

func TestRateLimitDelaysInsteadOfDropping(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.PerMinute = 1200
	cfg.Burst = 2
	u := New(cfg)

	const n = 8
	start := time.Now()
	for i := 0; i < n; i++ {
		assert.True(t, u.Send(Payload{Filename: fmt.Sprintf("%d.png", i)}))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond, "Send waited on the limiter")

	u.Wait()
	got := rec.received()
	require.Len(t, got, n)
	names := make([]string, 0, n)
	for _, p := range got {
		names = append(names, p.Filename)
	}
	assert.ElementsMatch(t, []string{"0.png", "1.png", "2.png", "3.png", "4.png", "5.png", "6.png", "7.png"}, names)
	// 6 queued uploads at 20/s take at least ~300ms
	assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)
}

func TestRateLimitQueueGivesUpAfterMaxDelay(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.PerMinute = 1
	cfg.Burst = 1
	cfg.MaxDelay = 50 * time.Millisecond
	u := New(cfg)

	assert.True(t, u.Send(Payload{Filename: "1.png"}))
	assert.True(t, u.Send(Payload{Filename: "2.png"}))

	done := make(chan struct{})
	go func() {
		u.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not drain the queued upload")
	}
	assert.Len(t, rec.received(), 1)
}
