package deepgram

import (
	"strconv"
	"strings"
)

// ControlType identifies the kind of a control frame sent to or received
// from the transcription service.
type ControlType string

const (
	// ControlTypeStartStream requests that the server begin a stream.
	ControlTypeStartStream ControlType = "StartStream"

	// ControlTypeCloseStream tells the server no more audio will be sent.
	ControlTypeCloseStream ControlType = "CloseStream"

	// ControlTypeKeepAlive keeps an otherwise silent connection open.
	ControlTypeKeepAlive ControlType = "KeepAlive"

	// ControlTypeError reports an error condition.
	ControlTypeError ControlType = "Error"
)

// ControlMessage is a JSON text frame exchanged on the control channel of a
// live transcription connection.
type ControlMessage struct {
	Type    ControlType `json:"type"`
	Message string      `json:"message,omitempty"`
	Code    *int        `json:"code,omitempty"`
	Details string      `json:"details,omitempty"`
}

// NewKeepAliveMessage returns a KeepAlive control frame.
func NewKeepAliveMessage() *ControlMessage {
	return &ControlMessage{Type: ControlTypeKeepAlive}
}

// NewStartStreamMessage returns a StartStream control frame.
func NewStartStreamMessage() *ControlMessage {
	return &ControlMessage{Type: ControlTypeStartStream}
}

// NewCloseStreamMessage returns a CloseStream control frame.
func NewCloseStreamMessage() *ControlMessage {
	return &ControlMessage{Type: ControlTypeCloseStream}
}

// NewErrorMessage returns an Error control frame carrying a human readable
// message and an optional numeric code.
func NewErrorMessage(message string, code *int) *ControlMessage {
	return &ControlMessage{Type: ControlTypeError, Message: message, Code: code}
}

// Validate checks that the message is well formed before it is sent.
func (m *ControlMessage) Validate() error {
	switch m.Type {
	case ControlTypeStartStream, ControlTypeCloseStream, ControlTypeKeepAlive:
		return nil
	case ControlTypeError:
		if m.Message == "" {
			return NewError(ErrorStatusInvalidArgument, "error control message requires a message")
		}
		return nil
	default:
		return NewError(ErrorStatusInvalidArgument, "unknown control message type: "+string(m.Type))
	}
}

// Word is a single recognized word within a transcript alternative.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	// End is -1 when the word is still open ended in an interim result.
	End            float64 `json:"end"`
	Confidence     float64 `json:"confidence"`
	PunctuatedWord string  `json:"punctuated_word,omitempty"`
}

// Validate checks the word against the timing and confidence constraints of
// the wire format. An end of -1 marks an open-ended interim word and is
// exempt from the end >= start rule.
func (w *Word) Validate() error {
	if strings.TrimSpace(w.Word) == "" {
		return NewError(ErrorStatusParseError, "word cannot be empty")
	}
	if w.Start < 0 {
		return NewError(ErrorStatusParseError, "word start time cannot be negative")
	}
	if w.End != -1 && w.End < w.Start {
		return NewError(ErrorStatusParseError, "word end time cannot be before start time")
	}
	if w.Confidence < 0 || w.Confidence > 1 {
		return NewError(ErrorStatusParseError, "word confidence must be between 0 and 1")
	}
	return nil
}

// Alternative is one hypothesis for a channel's audio.
type Alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words"`
}

// Channel holds the recognition alternatives for one audio channel.
type Channel struct {
	Alternatives []Alternative `json:"alternatives"`
}

// ModelInfo describes the model that produced a response.
type ModelInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Arch    string `json:"arch"`
}

// Metadata carries per-response bookkeeping from the server.
type Metadata struct {
	RequestID string     `json:"request_id"`
	ModelInfo *ModelInfo `json:"model_info,omitempty"`
	ModelUUID string     `json:"model_uuid,omitempty"`
}

// TranscriptResponse is the raw JSON shape of a Results frame from the
// live transcription endpoint. Unknown fields are ignored.
type TranscriptResponse struct {
	Type         string    `json:"type"`
	ChannelIndex []int     `json:"channel_index"`
	Duration     float64   `json:"duration"`
	Start        float64   `json:"start"`
	IsFinal      bool      `json:"is_final"`
	SpeechFinal  bool      `json:"speech_final"`
	FromFinalize bool      `json:"from_finalize"`
	Channel      Channel   `json:"channel"`
	Metadata     *Metadata `json:"metadata,omitempty"`
}

// Validate checks every decoded word in the response. A structurally valid
// JSON frame carrying a malformed word is treated as a parse failure.
func (r *TranscriptResponse) Validate() error {
	for _, alt := range r.Channel.Alternatives {
		for i := range alt.Words {
			if err := alt.Words[i].Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// TranscriptMessage is the processed form of a transcript response that is
// delivered to the OnTranscript handler.
type TranscriptMessage struct {
	Transcript string
	Confidence float64
	Channel    string
	Start      float64
	Duration   float64
	Words      []Word
	IsFinal    bool
}

// ToMessage converts the raw response into a TranscriptMessage, or returns
// nil when the response carries no alternatives and should be skipped.
func (r *TranscriptResponse) ToMessage() *TranscriptMessage {
	if len(r.Channel.Alternatives) == 0 {
		return nil
	}
	alt := r.Channel.Alternatives[0]
	channel := "default"
	if len(r.ChannelIndex) > 0 {
		channel = strconv.Itoa(r.ChannelIndex[0])
	}
	return &TranscriptMessage{
		Transcript: alt.Transcript,
		Confidence: alt.Confidence,
		Channel:    channel,
		Start:      r.Start,
		Duration:   r.Duration,
		Words:      alt.Words,
		IsFinal:    r.IsFinal,
	}
}
