package capture

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

// mjpegSource reads frames from a multipart/x-mixed-replace MJPEG stream,
// the plain-HTTP face most webcam daemons expose.
type mjpegSource struct {
	resp   *http.Response
	reader *multipart.Reader
}

func openMJPEGStream(ctx context.Context, url string) (*mjpegSource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("camera stream returned status %d", resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		resp.Body.Close()
		return nil, fmt.Errorf("camera stream is not MJPEG (content-type %q)", resp.Header.Get("Content-Type"))
	}

	return &mjpegSource{
		resp:   resp,
		reader: multipart.NewReader(resp.Body, params["boundary"]),
	}, nil
}

func (s *mjpegSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	part, err := s.reader.NextPart()
	if err != nil {
		return nil, err
	}
	defer part.Close()

	return jpeg.Decode(part)
}

func (s *mjpegSource) Close() error {
	return s.resp.Body.Close()
}

// MJPEGFactory builds a SourceFactory for an MJPEG stream URL. An empty URL
// yields nil: no camera capability on this setup.
func MJPEGFactory(url string) SourceFactory {
	if url == "" {
		return nil
	}
	return func(ctx context.Context) (FrameSource, error) {
		return openMJPEGStream(ctx, url)
	}
}
