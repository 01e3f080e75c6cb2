package monitor

import (
	"context"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/models"
)

// The detection models and video capture are external capabilities. The loop
// only drives them; it never looks inside a frame.

// Box is a detected bounding region in frame coordinates.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the region's area in square pixels.
func (b Box) Area() float64 {
	return b.Width * b.Height
}

// Detection is one labeled region with a confidence score.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Frame is a single captured video frame. Implementations carry whatever
// pixel representation their detectors understand; the loop only needs
// dimensions.
type Frame interface {
	Size() (width, height int)
}

// FrameSource supplies the current video frame. A nil frame with a nil error
// means no frame is available this tick.
type FrameSource interface {
	Frame(ctx context.Context) (Frame, error)
}

// FaceDetector runs the pre-trained face model on a frame.
type FaceDetector interface {
	DetectFaces(ctx context.Context, frame Frame) ([]Detection, error)
}

// ObjectDetector runs the pre-trained general object model on a frame.
type ObjectDetector interface {
	DetectObjects(ctx context.Context, frame Frame) ([]Detection, error)
}

// OverlayRenderer draws bounding boxes and labels over the video. Pure side
// effect; nothing is carried to the next tick.
type OverlayRenderer interface {
	Render(frame Frame, faces, objects []Detection)
}

// SinkEvent is an anomaly produced by one tick of the loop.
type SinkEvent struct {
	Type     models.EventType
	Severity models.EventSeverity
	Source   models.EventSource
	Details  map[string]interface{}
}

// EventSink receives anomalies. Delivery failures are logged by the loop and
// never stop it.
type EventSink interface {
	Submit(ctx context.Context, event SinkEvent) error
}
