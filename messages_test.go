package deepgram

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestControlMessageJSON(t *testing.T) {
	tests := []struct {
		name string
		msg  *ControlMessage
		want string
	}{
		{name: "keep-alive", msg: NewKeepAliveMessage(), want: `{"type":"KeepAlive"}`},
		{name: "close stream", msg: NewCloseStreamMessage(), want: `{"type":"CloseStream"}`},
		{name: "start stream", msg: NewStartStreamMessage(), want: `{"type":"StartStream"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.msg)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, string(data))
			}
		})
	}
}

func TestErrorControlMessageJSON(t *testing.T) {
	code := 4001
	msg := NewErrorMessage("bad audio", &code)
	msg.Details = "unsupported encoding"

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"type":"Error"`, `"message":"bad audio"`, `"code":4001`, `"details":"unsupported encoding"`} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON missing %s: %s", want, s)
		}
	}
}

func TestControlMessageValidate(t *testing.T) {
	if err := NewKeepAliveMessage().Validate(); err != nil {
		t.Errorf("keep-alive should validate: %v", err)
	}
	if err := NewErrorMessage("boom", nil).Validate(); err != nil {
		t.Errorf("error message with text should validate: %v", err)
	}
	if err := (&ControlMessage{Type: ControlTypeError}).Validate(); err == nil {
		t.Error("error message without text should fail validation")
	}
	if err := (&ControlMessage{Type: "Bogus"}).Validate(); err == nil {
		t.Error("unknown type should fail validation")
	}
}

func TestWordValidate(t *testing.T) {
	tests := []struct {
		name    string
		word    Word
		wantErr bool
	}{
		{name: "valid", word: Word{Word: "hello", Start: 0.5, End: 0.9, Confidence: 0.99}},
		{name: "open ended", word: Word{Word: "world", Start: 1.0, End: -1, Confidence: 0.97}},
		{name: "empty word", word: Word{Word: "  ", Start: 0, End: 1, Confidence: 0.5}, wantErr: true},
		{name: "negative start", word: Word{Word: "x", Start: -0.1, End: 1, Confidence: 0.5}, wantErr: true},
		{name: "end before start", word: Word{Word: "x", Start: 5, End: 1, Confidence: 0.5}, wantErr: true},
		{name: "confidence above one", word: Word{Word: "x", Start: 0, End: 1, Confidence: 1.5}, wantErr: true},
		{name: "negative confidence", word: Word{Word: "x", Start: 0, End: 1, Confidence: -0.1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.word.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr && !IsErrorStatus(err, ErrorStatusParseError) {
				t.Errorf("expected parse error status, got %v", err)
			}
		})
	}
}

func TestTranscriptResponseValidate(t *testing.T) {
	var resp TranscriptResponse
	if err := json.Unmarshal([]byte(sampleTranscriptJSON), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if err := resp.Validate(); err != nil {
		t.Errorf("sample response should validate: %v", err)
	}

	resp.Channel.Alternatives[0].Words[0].End = 0.1
	if err := resp.Validate(); !IsErrorStatus(err, ErrorStatusParseError) {
		t.Errorf("expected parse error for malformed word, got %v", err)
	}
}

const sampleTranscriptJSON = `{
	"type": "Results",
	"channel_index": [0, 1],
	"duration": 1.02,
	"start": 0.5,
	"is_final": true,
	"speech_final": true,
	"channel": {
		"alternatives": [
			{
				"transcript": "Hello world",
				"confidence": 0.925,
				"words": [
					{"word": "hello", "start": 0.5, "end": 0.9, "confidence": 0.99, "punctuated_word": "Hello"},
					{"word": "world", "start": 1.0, "end": -1, "confidence": 0.97}
				]
			}
		]
	},
	"metadata": {
		"request_id": "req-123",
		"model_info": {"name": "nova-2", "version": "2024-01-01", "arch": "nova"}
	},
	"some_future_field": {"nested": true}
}`

func TestTranscriptResponseDecode(t *testing.T) {
	var resp TranscriptResponse
	if err := json.Unmarshal([]byte(sampleTranscriptJSON), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if resp.Type != "Results" {
		t.Errorf("expected type Results, got %q", resp.Type)
	}
	if !resp.IsFinal || !resp.SpeechFinal {
		t.Error("expected is_final and speech_final true")
	}
	if resp.Duration != 1.02 {
		t.Errorf("expected duration 1.02, got %v", resp.Duration)
	}
	if len(resp.Channel.Alternatives) != 1 {
		t.Fatalf("expected 1 alternative, got %d", len(resp.Channel.Alternatives))
	}
	if resp.Metadata == nil || resp.Metadata.RequestID != "req-123" {
		t.Errorf("expected metadata request_id req-123, got %+v", resp.Metadata)
	}

	words := resp.Channel.Alternatives[0].Words
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	if words[0].PunctuatedWord != "Hello" {
		t.Errorf("expected punctuated word, got %q", words[0].PunctuatedWord)
	}
	if words[1].End != -1 {
		t.Errorf("expected open-ended word end -1, got %v", words[1].End)
	}
}

func TestToMessage(t *testing.T) {
	var resp TranscriptResponse
	if err := json.Unmarshal([]byte(sampleTranscriptJSON), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	msg := resp.ToMessage()
	if msg == nil {
		t.Fatal("expected non-nil message")
	}
	if msg.Transcript != "Hello world" {
		t.Errorf("expected transcript %q, got %q", "Hello world", msg.Transcript)
	}
	if msg.Confidence != 0.925 {
		t.Errorf("expected confidence 0.925, got %v", msg.Confidence)
	}
	if msg.Channel != "0" {
		t.Errorf("expected channel %q, got %q", "0", msg.Channel)
	}
	if !msg.IsFinal {
		t.Error("expected final message")
	}
	if len(msg.Words) != 2 {
		t.Errorf("expected 2 words, got %d", len(msg.Words))
	}
}

func TestToMessageNilWithoutAlternatives(t *testing.T) {
	resp := &TranscriptResponse{Type: "Results"}
	if msg := resp.ToMessage(); msg != nil {
		t.Errorf("expected nil message, got %+v", msg)
	}
}

func TestToMessageDefaultChannel(t *testing.T) {
	resp := &TranscriptResponse{
		Channel: Channel{Alternatives: []Alternative{{Transcript: "hi"}}},
	}
	msg := resp.ToMessage()
	if msg == nil {
		t.Fatal("expected non-nil message")
	}
	if msg.Channel != "default" {
		t.Errorf("expected default channel, got %q", msg.Channel)
	}
}
