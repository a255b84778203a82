package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/config"
	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/crop"
	imagepkg "github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/image"
	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/upload"
	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/util"
)

// MaxMessageRunes caps the message field.
const MaxMessageRunes = 500

var (
	// ErrNoCrop is returned by crop operations outside a crop session.
	ErrNoCrop = errors.New("no crop in progress")
	// ErrNoPhoto is returned when an avatar is requested before one was made.
	ErrNoPhoto = errors.New("no avatar photo")
)

// State is the page state of the editor.
type State int

const (
	Empty State = iota
	Cropping
	Ready
)

func (s State) String() string {
	switch s {
	case Cropping:
		return "cropping"
	case Ready:
		return "ready"
	default:
		return "empty"
	}
}

// Fields are the free-text inputs drawn on the frame.
type Fields struct {
	Name     string `json:"name"`
	RoleUnit string `json:"roleUnit"`
	Message  string `json:"message"`
}

// Avatar is the confirmed square photo and its encoded copy.
type Avatar struct {
	Image image.Image
	Data  []byte
	MIME  string
}

// Export is one downloaded composite.
type Export struct {
	ID       string
	Filename string
	Data     []byte
	MIME     string
	// Uploaded reports whether a backup upload was started.
	Uploaded bool
}

// CropSnapshot describes an active crop session.
type CropSnapshot struct {
	Box           crop.Box `json:"box"`
	DisplayWidth  float64  `json:"displayWidth"`
	DisplayHeight float64  `json:"displayHeight"`
	Mode          string   `json:"mode"`
}

// Snapshot is a copy of the editor state for the client.
type Snapshot struct {
	State     string        `json:"state"`
	Fields    Fields        `json:"fields"`
	HasAvatar bool          `json:"hasAvatar"`
	Crop      *CropSnapshot `json:"crop,omitempty"`
}

// Uploader receives exported frames for backup.
type Uploader interface {
	Send(p upload.Payload) bool
}

// Option customizes an Editor.
type Option func(*Editor)

// WithClock replaces time.Now for export file names.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

// Editor holds one user's frame in progress: the photo being cropped, the
// confirmed avatar, the text fields and the cached composite.
// All methods are safe for concurrent use.
type Editor struct {
	renderer  *imagepkg.Renderer
	frame     image.Image
	cropCfg   config.CropConfig
	exportCfg config.ExportConfig
	uploader  Uploader
	now       func() time.Time
	logger    zerolog.Logger

	mu        sync.Mutex
	state     State
	selector  *crop.Selector
	avatar    *Avatar
	fields    Fields
	composite *image.RGBA
	dirty     bool
}

// New creates an editor drawing with r over frame (nil for none).
// uploader may be nil to disable backups.
func New(r *imagepkg.Renderer, frame image.Image, cfg *config.Config, uploader Uploader, opts ...Option) *Editor {
	e := &Editor{
		renderer:  r,
		frame:     frame,
		cropCfg:   cfg.Crop,
		exportCfg: cfg.Export,
		uploader:  uploader,
		now:       time.Now,
		logger:    log.With().Str("module", "editor").Logger(),
		dirty:     true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current page state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot returns the state, fields and crop box.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := Snapshot{State: e.state.String(), Fields: e.fields, HasAvatar: e.avatar != nil}
	if e.selector != nil {
		w, h := e.selector.Display()
		snap.Crop = &CropSnapshot{
			Box:           e.selector.Box(),
			DisplayWidth:  w,
			DisplayHeight: h,
			Mode:          e.selector.Mode().String(),
		}
	}
	return snap
}

// LoadPhoto decodes a picked file. On mobile the avatar is produced directly
// from the centred square; otherwise a crop session starts over a
// displayW x displayH area (config defaults when not positive).
// A decode failure leaves the editor unchanged.
func (e *Editor) LoadPhoto(ctx context.Context, data []byte, mobile bool, displayW, displayH float64) (State, error) {
	img, err := imagepkg.Decode(ctx, data)
	if err != nil {
		e.logger.Warn().Err(err).Int("bytes", len(data)).Msg("photo rejected")
		return e.State(), err
	}
	b := img.Bounds()

	if mobile {
		avatar, err := e.encodeAvatar(ctx, crop.AutoCropCenter(img, e.cropCfg.MobileOutput))
		if err != nil {
			return e.State(), err
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		e.selector = nil
		e.avatar = avatar
		e.state = Ready
		e.dirty = true
		e.logger.Info().Int("width", b.Dx()).Int("height", b.Dy()).Msg("photo auto-cropped")
		return e.state, nil
	}

	if displayW <= 0 || displayH <= 0 {
		displayW, displayH = e.cropCfg.DisplayWidth, e.cropCfg.DisplayHeight
	}
	sel, err := crop.NewSelector(img, displayW, displayH, crop.Options{
		MinSize:         e.cropCfg.MinSize,
		HandleTolerance: e.cropCfg.HandleTolerance,
		DefaultFraction: e.cropCfg.DefaultFraction,
		MaxDefaultSize:  e.cropCfg.MaxDefaultSize,
		OutputSize:      e.cropCfg.OutputSize,
	})
	if err != nil {
		return e.State(), err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.selector = sel
	e.state = Cropping
	e.logger.Info().Int("width", b.Dx()).Int("height", b.Dy()).Msg("crop session started")
	return e.state, nil
}

func (e *Editor) withSelector(fn func(s *crop.Selector) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Cropping || e.selector == nil {
		return ErrNoCrop
	}
	return fn(e.selector)
}

// BeginDrag starts a move or resize at p in display coordinates.
func (e *Editor) BeginDrag(p crop.Point) (crop.DragMode, error) {
	var mode crop.DragMode
	err := e.withSelector(func(s *crop.Selector) error {
		mode = s.BeginDrag(p)
		return nil
	})
	return mode, err
}

// UpdateDrag moves the pointer of the active drag.
func (e *Editor) UpdateDrag(p crop.Point) (crop.Box, error) {
	var box crop.Box
	err := e.withSelector(func(s *crop.Selector) error {
		box = s.UpdateDrag(p)
		return nil
	})
	return box, err
}

// EndDrag releases the pointer.
func (e *Editor) EndDrag() (crop.Box, error) {
	var box crop.Box
	err := e.withSelector(func(s *crop.Selector) error {
		s.EndDrag()
		box = s.Box()
		return nil
	})
	return box, err
}

// ResizeDisplay reports a new display size for the crop overlay.
func (e *Editor) ResizeDisplay(w, h float64) (crop.Box, error) {
	var box crop.Box
	err := e.withSelector(func(s *crop.Selector) error {
		if w <= 0 || h <= 0 {
			return fmt.Errorf("invalid display size %.0fx%.0f", w, h)
		}
		s.Resize(w, h)
		box = s.Box()
		return nil
	})
	return box, err
}

// Suggest places the box on the most interesting square of the photo.
func (e *Editor) Suggest() (crop.Box, error) {
	var box crop.Box
	err := e.withSelector(func(s *crop.Selector) error {
		var err error
		box, err = s.Suggest()
		return err
	})
	return box, err
}

// CropView renders the crop overlay as the user sees it.
func (e *Editor) CropView() (image.Image, error) {
	var view image.Image
	err := e.withSelector(func(s *crop.Selector) error {
		view = s.View()
		return nil
	})
	return view, err
}

// ConfirmCrop replaces the avatar with the current selection.
func (e *Editor) ConfirmCrop(ctx context.Context) (*Avatar, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Cropping || e.selector == nil {
		return nil, ErrNoCrop
	}

	box := e.selector.Box()
	avatar, err := e.encodeAvatar(ctx, e.selector.Confirm())
	if err != nil {
		return nil, err
	}
	e.avatar = avatar
	e.selector = nil
	e.state = Ready
	e.dirty = true
	e.logger.Info().
		Float64("x", box.X).Float64("y", box.Y).Float64("size", box.Size).
		Msg("crop confirmed")
	return avatar, nil
}

// CancelCrop closes the crop session, keeping any earlier avatar.
func (e *Editor) CancelCrop() (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Cropping {
		return e.state, ErrNoCrop
	}
	e.selector = nil
	if e.avatar != nil {
		e.state = Ready
	} else {
		e.state = Empty
	}
	return e.state, nil
}

// ClearAvatar removes the photo and returns to Empty.
func (e *Editor) ClearAvatar() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selector = nil
	if e.avatar != nil {
		e.dirty = true
	}
	e.avatar = nil
	e.state = Empty
}

// Avatar returns the confirmed avatar.
func (e *Editor) Avatar() (*Avatar, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.avatar == nil {
		return nil, ErrNoPhoto
	}
	return e.avatar, nil
}

// SetFields stores the text inputs and returns them as stored; the message
// is cut at MaxMessageRunes.
func (e *Editor) SetFields(f Fields) Fields {
	f.Message = truncateRunes(f.Message, MaxMessageRunes)

	e.mu.Lock()
	defer e.mu.Unlock()
	if f != e.fields {
		e.fields = f
		e.dirty = true
	}
	return e.fields
}

// Fields returns the stored text inputs.
func (e *Editor) Fields() Fields {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fields
}

// Composite returns the full-size frame, redrawn only after a change.
// The returned image is shared and must not be modified.
func (e *Editor) Composite() *image.RGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.compositeLocked()
}

func (e *Editor) compositeLocked() *image.RGBA {
	if !e.dirty && e.composite != nil {
		return e.composite
	}
	st := imagepkg.State{
		Frame:    e.frame,
		Name:     e.fields.Name,
		RoleUnit: e.fields.RoleUnit,
		Message:  e.fields.Message,
	}
	if e.avatar != nil {
		st.Avatar = e.avatar.Image
	}
	start := time.Now()
	e.composite = e.renderer.Render(st)
	e.dirty = false
	e.logger.Debug().Dur("took", time.Since(start)).Msg("composite rendered")
	return e.composite
}

// Preview encodes the composite scaled to width pixels as JPEG.
func (e *Editor) Preview(ctx context.Context, width int) ([]byte, string, error) {
	img := e.Composite()
	if width <= 0 {
		width = e.exportCfg.PreviewWidth
	}
	var out image.Image = img
	if width < img.Bounds().Dx() {
		out = imaging.Resize(img, width, 0, imaging.Linear)
	}
	return imagepkg.Encode(ctx, out, "jpeg", 80)
}

// Export encodes the full-size composite for download and starts the
// backup upload without waiting for it.
func (e *Editor) Export(ctx context.Context, userAgent string) (*Export, error) {
	e.mu.Lock()
	img := e.compositeLocked()
	fields := e.fields
	e.mu.Unlock()

	data, mime, err := imagepkg.Encode(ctx, img, e.exportCfg.Format, e.exportCfg.Quality)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	exp := &Export{
		ID:       uuid.New().String(),
		Filename: util.ExportFilename(fields.Name, imagepkg.Ext(e.exportCfg.Format), e.now(), e.exportCfg.FallbackFilename),
		Data:     data,
		MIME:     mime,
	}
	if e.uploader != nil {
		exp.Uploaded = e.uploader.Send(upload.Payload{
			Name:        fields.Name,
			RoleUnit:    fields.RoleUnit,
			Message:     fields.Message,
			Base64Image: upload.DataURL(mime, data),
			Filename:    exp.Filename,
			MimeType:    mime,
			UserAgent:   userAgent,
		})
	}
	e.logger.Info().
		Str("export_id", exp.ID).
		Str("filename", exp.Filename).
		Int("bytes", len(data)).
		Bool("uploaded", exp.Uploaded).
		Msg("frame exported")
	return exp, nil
}

func (e *Editor) encodeAvatar(ctx context.Context, img *image.NRGBA) (*Avatar, error) {
	data, mime, err := imagepkg.Encode(ctx, img, e.cropCfg.Format, e.cropCfg.Quality)
	if err != nil {
		return nil, fmt.Errorf("encoding avatar: %w", err)
	}
	return &Avatar{Image: img, Data: data, MIME: mime}, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
