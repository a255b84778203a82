package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/crop"
	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/editor"
	imagepkg "github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/image"
)

// maxPhotoBytes bounds uploaded photos.
const maxPhotoBytes = 32 << 20

type handlers struct {
	ed *editor.Editor
}

// health
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// abortWithError maps editor and decode errors onto HTTP statuses.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, imagepkg.ErrDecode):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, editor.ErrNoCrop):
		status = http.StatusConflict
	case errors.Is(err, editor.ErrNoPhoto):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *handlers) state(c *gin.Context) {
	c.JSON(http.StatusOK, h.ed.Snapshot())
}

// photo accepts a multipart "file" plus optional "mobile", "width" and
// "height" form values describing the client's crop overlay.
func (h *handlers) photo(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if fh.Size > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mobile, _ := strconv.ParseBool(c.PostForm("mobile"))
	width, _ := strconv.ParseFloat(c.PostForm("width"), 64)
	height, _ := strconv.ParseFloat(c.PostForm("height"), 64)
	if _, err := h.ed.LoadPhoto(c.Request.Context(), data, mobile, width, height); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ed.Snapshot())
}

type dragRequest struct {
	Phase string  `json:"phase" binding:"required,oneof=start move end"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

func (h *handlers) drag(c *gin.Context) {
	var req dragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := crop.Point{X: req.X, Y: req.Y}

	var err error
	switch req.Phase {
	case "start":
		_, err = h.ed.BeginDrag(p)
	case "move":
		_, err = h.ed.UpdateDrag(p)
	case "end":
		_, err = h.ed.EndDrag()
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	snap := h.ed.Snapshot()
	if snap.Crop == nil {
		abortWithError(c, editor.ErrNoCrop)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": snap.Crop.Mode, "box": snap.Crop.Box})
}

func (h *handlers) display(c *gin.Context) {
	var req struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "width and height must be positive"})
		return
	}
	box, err := h.ed.ResizeDisplay(req.Width, req.Height)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"box": box})
}

func (h *handlers) suggest(c *gin.Context) {
	box, err := h.ed.Suggest()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"box": box})
}

func (h *handlers) cropView(c *gin.Context) {
	view, err := h.ed.CropView()
	if err != nil {
		abortWithError(c, err)
		return
	}
	b, mimeType, err := imagepkg.Encode(c.Request.Context(), view, "png", 0)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, mimeType, b)
}

func (h *handlers) confirmCrop(c *gin.Context) {
	if _, err := h.ed.ConfirmCrop(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ed.Snapshot())
}

func (h *handlers) cancelCrop(c *gin.Context) {
	if _, err := h.ed.CancelCrop(); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ed.Snapshot())
}

func (h *handlers) avatar(c *gin.Context) {
	av, err := h.ed.Avatar()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, av.MIME, av.Data)
}

func (h *handlers) clearAvatar(c *gin.Context) {
	h.ed.ClearAvatar()
	c.JSON(http.StatusOK, h.ed.Snapshot())
}

func (h *handlers) fields(c *gin.Context) {
	var req editor.Fields
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.ed.SetFields(req))
}

// preview returns the composite scaled down to the "width" query param.
func (h *handlers) preview(c *gin.Context) {
	width := 0
	if v, err := strconv.Atoi(c.Query("width")); err == nil {
		width = v
	}
	b, mimeType, err := h.ed.Preview(c.Request.Context(), width)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, mimeType, b)
}

// export returns the full-size frame as a download and starts the backup upload.
func (h *handlers) export(c *gin.Context) {
	exp, err := h.ed.Export(c.Request.Context(), c.Request.UserAgent())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exp.Filename}))
	c.Header("X-Export-Id", exp.ID)
	c.Data(http.StatusOK, exp.MIME, exp.Data)
}

const (
	defaultQRText = "daihoi:hue-2025"
	defaultQRSize = 400
)

type qrRequest struct {
	Text string `form:"text"`
	Size int    `form:"size" binding:"omitempty,min=1,max=2000"`
}

// qrHandler renders the badge payload (or ?text=) as a PNG of ?size= pixels.
func qrHandler(c *gin.Context) {
	var req qrRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Text == "" {
		req.Text = defaultQRText
	}
	if req.Size == 0 {
		req.Size = defaultQRSize
	}
	png, err := imagepkg.GenerateQRPNG(req.Text, req.Size)
	if err != nil {
		abortWithError(c, fmt.Errorf("qr %dpx: %w", req.Size, err))
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
