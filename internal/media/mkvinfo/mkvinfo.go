package mkvinfo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed marks output that is not a valid identification document.
var ErrMalformed = errors.New("mkvinfo: malformed identification output")

// Result represents the parsed output of an identification run.
type Result struct {
	Container   Container       `json:"container"`
	Tracks      []Track         `json:"tracks"`
	Chapters    json.RawMessage `json:"chapters,omitempty"`
	Tags        json.RawMessage `json:"tags,omitempty"`
	GlobalTags  json.RawMessage `json:"global_tags,omitempty"`
	Attachments []Attachment    `json:"attachments,omitempty"`
	raw         []byte
}

// Container captures container-level metadata.
type Container struct {
	Type       string              `json:"type"`
	Recognized bool                `json:"recognized"`
	Supported  bool                `json:"supported"`
	Properties ContainerProperties `json:"properties"`
}

type ContainerProperties struct {
	Title    string `json:"title"`
	Duration int64  `json:"duration"`
}

// Track describes a single track in the container.
type Track struct {
	ID         int             `json:"id"`
	Type       string          `json:"type"`
	Codec      string          `json:"codec"`
	Properties TrackProperties `json:"properties"`
}

type TrackProperties struct {
	Language     string `json:"language"`
	LanguageIETF string `json:"language_ietf"`
	Name         string `json:"track_name"`
	Default      bool   `json:"default_track"`
	Forced       bool   `json:"forced_track"`
	CodecID      string `json:"codec_id"`
}

// Attachment describes an embedded attachment. mkvmerge versions disagree on
// key names, so decoding accepts both spellings.
type Attachment struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	MimeType    string `json:"mime_type"`
	Size        int64  `json:"size"`
	Description string `json:"description"`
}

// UnmarshalJSON accepts id/attachment_id, file_name/name and
// mime_type/content_type.
func (a *Attachment) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*a = Attachment{
		ID:          firstScalar(fields, "id", "attachment_id"),
		FileName:    firstScalar(fields, "file_name", "name"),
		MimeType:    firstScalar(fields, "mime_type", "content_type"),
		Description: firstScalar(fields, "description"),
	}
	if size := firstScalar(fields, "size"); size != "" {
		parsed, err := strconv.ParseInt(size, 10, 64)
		if err == nil {
			a.Size = parsed
		}
	}
	return nil
}

// Parse decodes an identification document.
func Parse(data []byte) (Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Result{}, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	var result Result
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	result.raw = append([]byte(nil), trimmed...)
	return result, nil
}

// RawJSON returns the raw identification payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// HasChapters reports whether the document lists any chapters.
func (r Result) HasChapters() bool {
	return present(r.Chapters)
}

// HasGlobalTags reports whether either tag section is populated.
func (r Result) HasGlobalTags() bool {
	return present(r.Tags) || present(r.GlobalTags)
}

// HasAttachments reports whether the document lists attachments.
func (r Result) HasAttachments() bool {
	return len(r.Attachments) > 0
}

// TagsJSON returns the tag section, preferring "tags" over "global_tags".
func (r Result) TagsJSON() json.RawMessage {
	if present(r.Tags) {
		return r.Tags
	}
	if present(r.GlobalTags) {
		return r.GlobalTags
	}
	return nil
}

// Track returns the track with the given id.
func (r Result) Track(id int) (Track, bool) {
	for _, track := range r.Tracks {
		if track.ID == id {
			return track, true
		}
	}
	return Track{}, false
}

// TrackCount returns the number of tracks of the given type ("video", "audio", ...).
func (r Result) TrackCount(kind string) int {
	count := 0
	for _, track := range r.Tracks {
		if strings.EqualFold(track.Type, kind) {
			count++
		}
	}
	return count
}

func present(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "[]", "{}", `""`, "false", "0":
		return false
	default:
		return true
	}
}

func firstScalar(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok || !present(raw) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s != "" {
				return s
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
	}
	return ""
}
