package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/models"
)

// Status is the presentation text shown to the candidate.
type Status string

const (
	StatusInitializing  Status = "Initializing..."
	StatusNoFace        Status = "No face detected"
	StatusMultipleFaces Status = "Multiple faces detected"
	StatusMoveCloser    Status = "Move closer to the camera"
	StatusMoveBack      Status = "Move back from the camera"
	StatusFocused       Status = "Focused"
)

const (
	// DefaultInterval is the sampling period of the detection loop.
	DefaultInterval = time.Second

	// Face-area-to-frame-area thresholds for the distance classification.
	minFaceRatio = 0.1
	maxFaceRatio = 0.3
)

// suspiciousLabels is the fixed set of object labels that trigger a
// suspicious_object event.
var suspiciousLabels = map[string]struct{}{
	"cell phone": {},
	"book":       {},
	"laptop":     {},
	"mouse":      {},
	"keyboard":   {},
}

// Loop is the periodic detection driver. Ticks are strictly serialized; event
// submission is fire-and-forget and may overlap the next tick.
type Loop struct {
	source   FrameSource
	faces    FaceDetector
	objects  ObjectDetector
	renderer OverlayRenderer
	sink     EventSink
	logger   *slog.Logger
	interval time.Duration

	mu     sync.Mutex
	status Status
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Loop)

// WithInterval overrides the default 1 s sampling period.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) { l.interval = d }
}

// WithRenderer attaches an overlay renderer.
func WithRenderer(r OverlayRenderer) Option {
	return func(l *Loop) { l.renderer = r }
}

func New(source FrameSource, faces FaceDetector, objects ObjectDetector, sink EventSink, logger *slog.Logger, opts ...Option) *Loop {
	l := &Loop{
		source:   source,
		faces:    faces,
		objects:  objects,
		sink:     sink,
		logger:   logger,
		interval: DefaultInterval,
		status:   StatusInitializing,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start begins ticking. Restart is idempotent: a running loop is stopped
// first, which simply resets the timer.
func (l *Loop) Start(ctx context.Context) {
	l.Stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	l.mu.Lock()
	l.cancel = cancel
	l.done = done
	l.mu.Unlock()

	go l.run(ctx, done)
}

// Stop clears the timer. An in-flight tick's submission is not cancelled; the
// event service accepts late events against an ended session.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Status returns the currently displayed status text.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// tick samples one frame, classifies it, and forwards any anomalies. No state
// is retained across ticks beyond the status text.
func (l *Loop) tick(ctx context.Context) {
	frame, err := l.source.Frame(ctx)
	if err != nil {
		l.logger.Warn("Frame capture failed", "error", err)
		return
	}
	if frame == nil {
		return
	}

	faces, err := l.faces.DetectFaces(ctx, frame)
	if err != nil {
		l.logger.Warn("Face detection failed", "error", err)
		return
	}

	anomalies := l.classifyFaces(frame, faces)

	objects, err := l.objects.DetectObjects(ctx, frame)
	if err != nil {
		l.logger.Warn("Object detection failed", "error", err)
		objects = nil
	}
	anomalies = append(anomalies, classifyObjects(objects)...)

	if l.renderer != nil {
		l.renderer.Render(frame, faces, objects)
	}

	for _, anomaly := range anomalies {
		l.forward(ctx, anomaly)
	}
}

func (l *Loop) classifyFaces(frame Frame, faces []Detection) []SinkEvent {
	switch len(faces) {
	case 0:
		l.setStatus(StatusNoFace)
		return []SinkEvent{{
			Type:     models.EventNoFace,
			Severity: models.SeverityWarning,
			Source:   models.SourceFaceDetection,
			Details:  map[string]interface{}{},
		}}
	case 1:
		width, height := frame.Size()
		ratio := 0.0
		if width > 0 && height > 0 {
			ratio = faces[0].Box.Area() / float64(width*height)
		}
		switch {
		case ratio < minFaceRatio:
			l.setStatus(StatusMoveCloser)
		case ratio > maxFaceRatio:
			l.setStatus(StatusMoveBack)
		default:
			l.setStatus(StatusFocused)
		}
		// Distance guidance is presentation only, not a persisted event.
		return nil
	default:
		l.setStatus(StatusMultipleFaces)
		return []SinkEvent{{
			Type:     models.EventMultipleFaces,
			Severity: models.SeverityWarning,
			Source:   models.SourceFaceDetection,
			Details:  map[string]interface{}{"count": len(faces)},
		}}
	}
}

func classifyObjects(objects []Detection) []SinkEvent {
	var anomalies []SinkEvent
	for _, detection := range objects {
		if _, suspicious := suspiciousLabels[detection.Label]; !suspicious {
			continue
		}
		anomalies = append(anomalies, SinkEvent{
			Type:     models.EventSuspiciousObject,
			Severity: models.SeverityWarning,
			Source:   models.SourceObjectDetection,
			Details: map[string]interface{}{
				"object":     detection.Label,
				"confidence": detection.Confidence,
			},
		})
	}
	return anomalies
}

// forward submits fire-and-forget: the next tick is never blocked on
// delivery, and a failure only logs.
func (l *Loop) forward(ctx context.Context, event SinkEvent) {
	submitCtx := context.WithoutCancel(ctx)
	go func() {
		if err := l.sink.Submit(submitCtx, event); err != nil {
			l.logger.Warn("Event submission failed",
				"event_type", event.Type,
				"error", err)
		}
	}()
}

func (l *Loop) setStatus(status Status) {
	l.mu.Lock()
	l.status = status
	l.mu.Unlock()
}
