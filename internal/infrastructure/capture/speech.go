package capture

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"pixtalk/pkg/errors"
	"pixtalk/pkg/logger"
)

// SpeechRecognizer performs one-shot, non-continuous speech recognition
// against a speech-gateway websocket. When no gateway is configured the
// adapter is inert: Recognize does nothing and the trigger control has no
// effect. That is capability detection, not a failure.
type SpeechRecognizer struct {
	endpoint     string
	apiKey       string
	language     string
	dialer       *websocket.Dialer
	onTranscript func(string)
	supported    bool
}

type speechStartFrame struct {
	Action         string `json:"action"`
	Language       string `json:"language"`
	Continuous     bool   `json:"continuous"`
	InterimResults bool   `json:"interim_results"`
}

type speechEvent struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript,omitempty"`
	Error      string `json:"error,omitempty"`
}

func NewSpeechRecognizer(endpoint, apiKey, language string, onTranscript func(string)) *SpeechRecognizer {
	supported := endpoint != ""
	if !supported {
		logger.Warn("Speech recognition gateway not configured; dictation disabled")
	}

	return &SpeechRecognizer{
		endpoint:     endpoint,
		apiKey:       apiKey,
		language:     language,
		dialer:       websocket.DefaultDialer,
		onTranscript: onTranscript,
		supported:    supported,
	}
}

func (r *SpeechRecognizer) Supported() bool {
	return r.supported
}

// Recognize runs a single recognition session: start frame out, first final
// transcript in, session closed. The transcript callback receives the full
// recognized text; the caller replaces its draft with it wholesale.
func (r *SpeechRecognizer) Recognize(ctx context.Context) error {
	if !r.supported {
		return nil
	}

	header := http.Header{}
	if r.apiKey != "" {
		header.Set("X-Api-Key", r.apiKey)
	}

	conn, _, err := r.dialer.DialContext(ctx, r.endpoint, header)
	if err != nil {
		logger.Error("Speech recognition error: failed to reach gateway: %v", err)
		return errors.Unavailable("Failed to reach speech gateway", err)
	}
	defer conn.Close()

	start := speechStartFrame{
		Action:         "start",
		Language:       r.language,
		Continuous:     false,
		InterimResults: false,
	}
	if err := conn.WriteJSON(start); err != nil {
		logger.Error("Speech recognition error: %v", err)
		return errors.Internal("Failed to start recognition session", err)
	}

	for {
		var event speechEvent
		if err := conn.ReadJSON(&event); err != nil {
			logger.Error("Speech recognition error: %v", err)
			return errors.Internal("Recognition session failed", err)
		}

		switch event.Type {
		case "final":
			if r.onTranscript != nil {
				r.onTranscript(event.Transcript)
			}
			return nil
		case "error":
			logger.Error("Speech recognition error: %s", event.Error)
			return errors.Internal("Speech recognition error: "+event.Error, nil)
		default:
			// interim or keepalive frames are ignored in one-shot mode
		}
	}
}
