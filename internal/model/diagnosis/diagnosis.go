package diagnosis

// Confidence is the qualitative certainty the model attached to a diagnosis.
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceUnknown Confidence = "unknown"
)

// Supported image MIME types. Anything else is rejected before a backend call.
const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEWebP = "image/webp"
)

// Request carries one leaf photo to analyse.
type Request struct {
	Image    []byte `json:"-"`
	MIMEType string `json:"mimeType"`
}

// Result is the outcome of a successful analysis.
type Result struct {
	Text              string     `json:"text"`
	HTML              string     `json:"html"`
	Confidence        Confidence `json:"confidence"`
	NeedsClearerImage bool       `json:"needsClearerImage"`
}

// Supported reports whether mimeType is on the allow-list.
func Supported(mimeType string) bool {
	switch mimeType {
	case MIMEJPEG, MIMEPNG, MIMEWebP:
		return true
	default:
		return false
	}
}
