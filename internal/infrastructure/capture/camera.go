package capture

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"

	"pixtalk/pkg/errors"
	"pixtalk/pkg/logger"
)

type CameraState int

const (
	CameraIdle CameraState = iota
	CameraRequesting
	CameraStreaming
	CameraCaptured
)

func (s CameraState) String() string {
	switch s {
	case CameraRequesting:
		return "requesting"
	case CameraStreaming:
		return "streaming"
	case CameraCaptured:
		return "captured"
	default:
		return "idle"
	}
}

// FrameSource is an open video stream delivering frames one at a time.
// Close must release the underlying device/connection.
type FrameSource interface {
	Next(ctx context.Context) (image.Image, error)
	Close() error
}

// SourceFactory acquires a stream. A nil factory means no camera capability
// is present and the Camera stays inert.
type SourceFactory func(ctx context.Context) (FrameSource, error)

// Camera drives the capture flow Idle -> Requesting -> Streaming -> Captured.
// Invariant: the frame source is open only while the state is Streaming;
// every transition out of Streaming closes it, including error paths.
type Camera struct {
	mu      sync.Mutex
	factory SourceFactory
	state   CameraState
	source  FrameSource
	width   int
	height  int
	frame   []byte
}

func NewCamera(factory SourceFactory, width, height int) *Camera {
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}
	return &Camera{
		factory: factory,
		width:   width,
		height:  height,
	}
}

func (c *Camera) Supported() bool {
	return c.factory != nil
}

func (c *Camera) State() CameraState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Frame returns the pending captured image (PNG bytes), or nil.
func (c *Camera) Frame() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Start requests the stream. Permission/device errors reset to Idle and are
// logged, not surfaced.
func (c *Camera) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.factory == nil {
		return errors.Unsupported("camera capability not available")
	}
	// Captured goes through Retry, which discards the frame first
	if c.state != CameraIdle {
		return nil
	}

	c.state = CameraRequesting
	source, err := c.factory(ctx)
	if err != nil {
		c.state = CameraIdle
		logger.Error("Error accessing the camera: %v", err)
		return errors.PermissionDenied("Failed to acquire camera stream", err)
	}

	c.source = source
	c.state = CameraStreaming
	return nil
}

// Capture rasterizes the current frame to a fixed-size PNG, holds it as the
// pending image, and tears the stream down.
func (c *Camera) Capture(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != CameraStreaming {
		return errors.BadInput("capture requires an open stream", nil)
	}

	img, err := c.source.Next(ctx)
	c.releaseLocked()
	if err != nil {
		c.state = CameraIdle
		logger.Error("Error reading camera frame: %v", err)
		return errors.Internal("Failed to read camera frame", err)
	}

	encoded, err := rasterize(img, c.width, c.height)
	if err != nil {
		c.state = CameraIdle
		logger.Error("Error encoding captured frame: %v", err)
		return errors.Internal("Failed to encode captured frame", err)
	}

	c.frame = encoded
	c.state = CameraCaptured
	return nil
}

// Retry discards the pending capture and re-requests the stream.
func (c *Camera) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.state != CameraCaptured {
		c.mu.Unlock()
		return errors.BadInput("retry requires a captured frame", nil)
	}
	c.frame = nil
	c.state = CameraIdle
	c.mu.Unlock()

	return c.Start(ctx)
}

// Stop releases the stream and discards any pending capture. Safe to call
// from any state and on every teardown path.
func (c *Camera) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked()
	c.frame = nil
	c.state = CameraIdle
}

func (c *Camera) releaseLocked() {
	if c.source == nil {
		return
	}
	if err := c.source.Close(); err != nil {
		logger.Warn("Error closing camera stream: %v", err)
	}
	c.source = nil
}

// rasterize scales the frame to width x height (nearest neighbor, same
// semantics as drawing a video frame onto a fixed-size canvas) and encodes
// it as PNG.
func rasterize(src image.Image, width, height int) ([]byte, error) {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		sy := bounds.Min.Y + y*bounds.Dy()/height
		for x := 0; x < width; x++ {
			sx := bounds.Min.X + x*bounds.Dx()/width
			dst.Set(x, y, color.RGBAModel.Convert(src.At(sx, sy)))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
