package upload

import (
	"context"
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/config"
	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/util"
)

// Payload is the JSON body posted to the backup endpoint.
type Payload struct {
	Name        string `json:"name"`
	RoleUnit    string `json:"roleUnit"`
	Message     string `json:"message"`
	Base64Image string `json:"base64Image"`
	Filename    string `json:"filename"`
	MimeType    string `json:"mimeType"`
	UserAgent   string `json:"userAgent"`
}

// DataURL encodes data as "data:<mime>;base64,<...>".
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Uploader forwards exported frames to the backup endpoint in the background.
// Each payload gets exactly one attempt; failures are logged and dropped.
type Uploader struct {
	endpoint string
	timeout  time.Duration
	maxDelay time.Duration
	client   *http.Client
	limiter  *rate.Limiter
	logger   zerolog.Logger

	wg sync.WaitGroup
}

func New(cfg config.UploadConfig) *Uploader {
	perSecond := rate.Limit(cfg.PerMinute / 60)
	if cfg.PerMinute <= 0 {
		perSecond = rate.Inf
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Minute
	}
	return &Uploader{
		endpoint: cfg.Endpoint,
		timeout:  cfg.Timeout,
		maxDelay: cfg.MaxDelay,
		client:   util.NewClient(cfg.Timeout),
		limiter:  rate.NewLimiter(perSecond, max(cfg.Burst, 1)),
		logger:   log.With().Str("module", "upload").Logger(),
	}
}

// Enabled reports whether an endpoint is configured.
func (u *Uploader) Enabled() bool { return u.endpoint != "" }

// Send posts p without blocking the caller. Uploads beyond the rate limit
// are queued for up to maxDelay. It reports whether the upload was started;
// false means it was disabled or the payload could not be encoded.
func (u *Uploader) Send(p Payload) bool {
	if !u.Enabled() {
		return false
	}
	body, err := sonic.Marshal(p)
	if err != nil {
		u.logger.Error().Err(err).Str("filename", p.Filename).Msg("encode upload payload")
		return false
	}

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		if err := u.awaitTurn(); err != nil {
			u.logger.Error().Err(err).Str("filename", p.Filename).Dur("max_delay", u.maxDelay).
				Msg("upload not sent, rate limit queue too long")
			return
		}
		u.post(p.Filename, body)
	}()
	return true
}

func (u *Uploader) awaitTurn() error {
	ctx, cancel := context.WithTimeout(context.Background(), u.maxDelay)
	defer cancel()
	return u.limiter.Wait(ctx)
}

func (u *Uploader) post(filename string, body []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), u.timeout)
	defer cancel()

	start := time.Now()
	status, err := util.PostJSON(ctx, u.client, u.endpoint, body)
	if err != nil {
		u.logger.Error().Err(err).Str("filename", filename).Msg("upload failed")
		return
	}
	u.logger.Info().
		Str("filename", filename).
		Int("status", status).
		Int("bytes", len(body)).
		Dur("took", time.Since(start)).
		Msg("upload sent")
}

// Wait blocks until every started upload has finished.
func (u *Uploader) Wait() {
	u.wg.Wait()
}
