package deepgram

import (
	"net/url"
	"strconv"
	"strings"
)

// AudioStreamOptions describes the audio stream parameters serialized into the
// connect URL's query string. Any field left at its zero value (or nil for the
// boolean flags) is omitted from the query.
type AudioStreamOptions struct {
	Encoding       string
	SampleRate     int
	Channels       int
	Language       string
	Model          string
	Punctuate      *bool
	InterimResults *bool
	Diarize        *bool
	Tier           string
	Version        string
}

// Bool returns a pointer to v, for the tri-state boolean option fields.
func Bool(v bool) *bool {
	return &v
}

// Validate checks that integer fields are positive when present.
func (o *AudioStreamOptions) Validate() error {
	if o.SampleRate < 0 {
		return NewError(ErrorStatusInvalidArgument, "sample rate must be positive")
	}
	if o.Channels < 0 {
		return NewError(ErrorStatusInvalidArgument, "channel count must be positive")
	}
	return nil
}

func (o *AudioStreamOptions) values() url.Values {
	v := url.Values{}
	if o.Encoding != "" {
		v.Set("encoding", o.Encoding)
	}
	if o.SampleRate > 0 {
		v.Set("sample_rate", strconv.Itoa(o.SampleRate))
	}
	if o.Channels > 0 {
		v.Set("channels", strconv.Itoa(o.Channels))
	}
	if o.Language != "" {
		v.Set("language", o.Language)
	}
	if o.Model != "" {
		v.Set("model", o.Model)
	}
	if o.Punctuate != nil {
		v.Set("punctuate", strconv.FormatBool(*o.Punctuate))
	}
	if o.InterimResults != nil {
		v.Set("interim_results", strconv.FormatBool(*o.InterimResults))
	}
	if o.Diarize != nil {
		v.Set("diarize", strconv.FormatBool(*o.Diarize))
	}
	if o.Tier != "" {
		v.Set("tier", o.Tier)
	}
	if o.Version != "" {
		v.Set("version", o.Version)
	}
	return v
}

// QueryString serializes the options to a "?"-prefixed query string.
// Returns the empty string when no option is set.
func (o *AudioStreamOptions) QueryString() string {
	encoded := o.values().Encode()
	if encoded == "" {
		return ""
	}
	return "?" + encoded
}

// AppendToURL appends the serialized options to baseURL, choosing "?" or "&"
// depending on whether baseURL already carries a query.
func (o *AudioStreamOptions) AppendToURL(baseURL string) string {
	encoded := o.values().Encode()
	if encoded == "" {
		return baseURL
	}
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + encoded
}

// ParseAudioStreamOptions decodes a query string (with or without the leading
// "?") produced by QueryString back into options.
func ParseAudioStreamOptions(query string) (*AudioStreamOptions, error) {
	query = strings.TrimPrefix(query, "?")
	values, err := url.ParseQuery(query)
	if err != nil {
		return nil, NewErrorWithCause(ErrorStatusInvalidArgument, "malformed query string", err)
	}

	opts := &AudioStreamOptions{
		Encoding: values.Get("encoding"),
		Language: values.Get("language"),
		Model:    values.Get("model"),
		Tier:     values.Get("tier"),
		Version:  values.Get("version"),
	}
	if s := values.Get("sample_rate"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return nil, NewError(ErrorStatusInvalidArgument, "sample_rate must be a positive integer")
		}
		opts.SampleRate = n
	}
	if s := values.Get("channels"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return nil, NewError(ErrorStatusInvalidArgument, "channels must be a positive integer")
		}
		opts.Channels = n
	}
	for key, dst := range map[string]**bool{
		"punctuate":       &opts.Punctuate,
		"interim_results": &opts.InterimResults,
		"diarize":         &opts.Diarize,
	} {
		if s := values.Get(key); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return nil, NewError(ErrorStatusInvalidArgument, key+" must be a boolean")
			}
			*dst = &b
		}
	}
	return opts, nil
}

// Equal reports structural equality over all option fields.
func (o *AudioStreamOptions) Equal(other *AudioStreamOptions) bool {
	if o == nil || other == nil {
		return o == other
	}
	return o.Encoding == other.Encoding &&
		o.SampleRate == other.SampleRate &&
		o.Channels == other.Channels &&
		o.Language == other.Language &&
		o.Model == other.Model &&
		boolPtrEqual(o.Punctuate, other.Punctuate) &&
		boolPtrEqual(o.InterimResults, other.InterimResults) &&
		boolPtrEqual(o.Diarize, other.Diarize) &&
		o.Tier == other.Tier &&
		o.Version == other.Version
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
