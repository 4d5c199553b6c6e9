package plate

type Color string

const (
	ColorWhite  Color = "white"
	ColorYellow Color = "yellow"
	ColorBlue   Color = "blue"
	ColorOther  Color = "other"
)

// ParseColor maps anything outside the known set to ColorOther.
func ParseColor(s string) Color {
	switch c := Color(s); c {
	case ColorWhite, ColorYellow, ColorBlue:
		return c
	default:
		return ColorOther
	}
}

type Viewpoint string

const (
	ViewFront   Viewpoint = "front"
	ViewRear    Viewpoint = "rear"
	ViewUnknown Viewpoint = "unknown"
)

// ParseViewpoint maps anything outside the known set to ViewUnknown.
func ParseViewpoint(s string) Viewpoint {
	switch v := Viewpoint(s); v {
	case ViewFront, ViewRear:
		return v
	default:
		return ViewUnknown
	}
}

// AnalysisResult is what the vision analyzer reads off one photo.
type AnalysisResult struct {
	PlateNumber string    `json:"plateNumber"`
	PlateColor  Color     `json:"plateColor"`
	Viewpoint   Viewpoint `json:"viewpoint"`
}

type AnalyzeRequest struct {
	Base64Data string `json:"base64Data" binding:"required"`
	MimeType   string `json:"mimeType" binding:"required"`
}
