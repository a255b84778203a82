package config

import "fmt"

// Layout is the immutable placement of every element on the frame canvas.
// All coordinates are in frame pixels; text Y values are baselines.
type Layout struct {
	FrameWidth  int    `yaml:"frame_width"`
	FrameHeight int    `yaml:"frame_height"`
	Background  string `yaml:"background"`

	Avatar    AvatarLayout    `yaml:"avatar"`
	Name      NameLayout      `yaml:"name"`
	Ward      BlockLayout     `yaml:"ward"`
	Message   MessageLayout   `yaml:"message"`
	Watermark WatermarkLayout `yaml:"watermark"`
	QR        QRLayout        `yaml:"qr"`
}

// AvatarLayout places the rounded-square avatar and its glow border.
type AvatarLayout struct {
	X         int     `yaml:"x"`
	Y         int     `yaml:"y"`
	Size      int     `yaml:"size"`
	Radius    float64 `yaml:"radius"`
	Stroke    string  `yaml:"stroke"`
	LineWidth float64 `yaml:"line_width"`
	Glow      string  `yaml:"glow"`
	GlowBlur  float64 `yaml:"glow_blur"`
}

// NameLayout is the auto-fit single line label.
type NameLayout struct {
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
	MaxWidth    float64 `yaml:"max_width"`
	MaxFontSize float64 `yaml:"max_font_size"`
	MinFontSize float64 `yaml:"min_font_size"`
	FontStep    float64 `yaml:"font_step"`
	Fill        string  `yaml:"fill"`
	Stroke      string  `yaml:"stroke"`
	MinStroke   float64 `yaml:"min_stroke"`
	StrokeRatio float64 `yaml:"stroke_ratio"`
	Font        string  `yaml:"font"`
}

// BlockLayout is a centre-wrapped multi-line label.
type BlockLayout struct {
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Width      float64 `yaml:"width"`
	LineHeight float64 `yaml:"line_height"`
	FontSize   float64 `yaml:"font_size"`
	Color      string  `yaml:"color"`
	Font       string  `yaml:"font"`
}

// MessageLayout is the justified multi-paragraph body.
type MessageLayout struct {
	X            float64 `yaml:"x"`
	Y            float64 `yaml:"y"`
	Width        float64 `yaml:"width"`
	LineHeight   float64 `yaml:"line_height"`
	FontSize     float64 `yaml:"font_size"`
	ParagraphGap float64 `yaml:"paragraph_gap"`
	Color        string  `yaml:"color"`
	Font         string  `yaml:"font"`
}

type WatermarkLayout struct {
	Text     string  `yaml:"text"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	FontSize float64 `yaml:"font_size"`
	Color    string  `yaml:"color"`
	Font     string  `yaml:"font"`
}

// QRLayout stamps a QR code on the frame when Text is set.
type QRLayout struct {
	Text string `yaml:"text"`
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
	Size int    `yaml:"size"`
}

// DefaultLayout returns the 7550x3980 congress frame layout.
func DefaultLayout() Layout {
	const avatarSize = 1450
	return Layout{
		FrameWidth:  7550,
		FrameHeight: 3980,
		Background:  "#0B3D91",
		Avatar: AvatarLayout{
			X:         1450 - avatarSize/2,
			Y:         1290 - 118,
			Size:      avatarSize,
			Radius:    80,
			Stroke:    "#66B2FF",
			LineWidth: 50,
			Glow:      "#66B2FFCC",
			GlowBlur:  140,
		},
		Name: NameLayout{
			X:           1440,
			Y:           2910,
			MaxWidth:    1750,
			MaxFontSize: 180,
			MinFontSize: 60,
			FontStep:    4,
			Fill:        "#FF8A00",
			Stroke:      "#FFFFFF",
			MinStroke:   12,
			StrokeRatio: 0.1,
		},
		Ward: BlockLayout{
			X:          1480,
			Y:          3280,
			Width:      1850,
			LineHeight: 95,
			FontSize:   95,
			Color:      "#FFFFFF",
		},
		Message: MessageLayout{
			X:            2950,
			Y:            2030,
			Width:        4150,
			LineHeight:   190,
			FontSize:     150,
			ParagraphGap: 15,
			Color:        "#FFFFFF",
		},
		Watermark: WatermarkLayout{
			Text:     "ĐẠI HỘI ĐOÀN TNCS HỒ CHÍ MINH TP HUẾ 2025",
			X:        7350,
			Y:        3920,
			FontSize: 70,
			Color:    "#FFFFFF66",
		},
		QR: QRLayout{Size: 400},
	}
}

// Validate rejects layouts that cannot be drawn.
func (l Layout) Validate() error {
	if l.FrameWidth <= 0 || l.FrameHeight <= 0 {
		return fmt.Errorf("layout: invalid frame size %dx%d", l.FrameWidth, l.FrameHeight)
	}
	if l.Avatar.Size <= 0 {
		return fmt.Errorf("layout: avatar size must be positive, got %d", l.Avatar.Size)
	}
	if l.Name.MaxFontSize < l.Name.MinFontSize || l.Name.MinFontSize <= 0 || l.Name.FontStep <= 0 {
		return fmt.Errorf("layout: invalid name font range %.0f..%.0f step %.0f",
			l.Name.MinFontSize, l.Name.MaxFontSize, l.Name.FontStep)
	}
	if l.Name.MaxWidth <= 0 || l.Ward.Width <= 0 || l.Message.Width <= 0 {
		return fmt.Errorf("layout: text widths must be positive")
	}
	if l.Ward.FontSize <= 0 || l.Message.FontSize <= 0 {
		return fmt.Errorf("layout: font sizes must be positive")
	}
	return nil
}
