package mkvtoolnix

import (
	"strings"

	"mkvbatch/internal/media/mkvinfo"
)

// Section identifies an optional container section that can be stripped from
// a source before muxing.
type Section int

const (
	SectionChapters Section = iota
	SectionGlobalTags
	SectionAttachments
)

// Sections lists every strippable section in mux argument order.
var Sections = []Section{SectionChapters, SectionGlobalTags, SectionAttachments}

func (s Section) String() string {
	switch s {
	case SectionChapters:
		return "chapters"
	case SectionGlobalTags:
		return "global_tags"
	case SectionAttachments:
		return "attachments"
	default:
		return "unknown"
	}
}

func (s Section) flag() string {
	switch s {
	case SectionChapters:
		return "--no-chapters"
	case SectionGlobalTags:
		return "--no-global-tags"
	case SectionAttachments:
		return "--no-attachments"
	default:
		return ""
	}
}

// Capabilities records which stripping flags the installed mkvmerge accepts.
type Capabilities struct {
	NoChapters    bool
	NoGlobalTags  bool
	NoAttachments bool
}

// AllCapabilities reports every stripping flag as supported.
func AllCapabilities() Capabilities {
	return Capabilities{NoChapters: true, NoGlobalTags: true, NoAttachments: true}
}

// Supports reports whether section can be stripped.
func (c Capabilities) Supports(section Section) bool {
	switch section {
	case SectionChapters:
		return c.NoChapters
	case SectionGlobalTags:
		return c.NoGlobalTags
	case SectionAttachments:
		return c.NoAttachments
	default:
		return false
	}
}

func parseCapabilities(help string) Capabilities {
	return Capabilities{
		NoChapters:    strings.Contains(help, SectionChapters.flag()),
		NoGlobalTags:  strings.Contains(help, SectionGlobalTags.flag()),
		NoAttachments: strings.Contains(help, SectionAttachments.flag()),
	}
}

// Track is one track of an opened source with its mutable mux properties.
type Track struct {
	ID       int
	Type     string
	Codec    string
	Language string
	Name     string
	Default  bool
	Forced   bool
}

// Source is a freshly opened input file. Each merge opens its own Source so
// overrides applied to one pair never leak into another.
type Source struct {
	Path   string
	Info   mkvinfo.Result
	tracks []Track
	strip  map[Section]bool
}

// NewSource builds a Source from an identification result.
func NewSource(path string, info mkvinfo.Result) *Source {
	src := &Source{Path: path, Info: info, strip: make(map[Section]bool)}
	for _, t := range info.Tracks {
		src.tracks = append(src.tracks, Track{
			ID:       t.ID,
			Type:     t.Type,
			Codec:    t.Codec,
			Language: t.Properties.Language,
			Name:     t.Properties.Name,
			Default:  t.Properties.Default,
			Forced:   t.Properties.Forced,
		})
	}
	return src
}

// Tracks returns a copy of the source tracks in container order.
func (s *Source) Tracks() []Track {
	return append([]Track(nil), s.tracks...)
}

// Track looks up a track by container id.
func (s *Source) Track(id int) (Track, bool) {
	for _, t := range s.tracks {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}

// Strip marks section for removal when this source is muxed.
func (s *Source) Strip(section Section) {
	s.strip[section] = true
}

// Stripped reports whether section has been marked for removal.
func (s *Source) Stripped(section Section) bool {
	return s.strip[section]
}

// OutputTrack is a track attached to an Output, tied to the source it comes from.
type OutputTrack struct {
	Source *Source
	Track  Track
}

// Output describes the container mkvmerge should produce.
type Output struct {
	Title   string
	sources []*Source
	tracks  []OutputTrack
}

func NewOutput(title string) *Output {
	return &Output{Title: title}
}

// AddSource registers src as an input even when none of its tracks are
// attached, so its chapters, tags and attachments still reach the output.
func (o *Output) AddSource(src *Source) {
	if src == nil || o.indexOf(src) >= 0 {
		return
	}
	o.sources = append(o.sources, src)
}

// AddTrack attaches track from src in call order.
func (o *Output) AddTrack(src *Source, track Track) {
	o.AddSource(src)
	o.tracks = append(o.tracks, OutputTrack{Source: src, Track: track})
}

func (o *Output) Sources() []*Source {
	return append([]*Source(nil), o.sources...)
}

func (o *Output) Tracks() []OutputTrack {
	return append([]OutputTrack(nil), o.tracks...)
}

func (o *Output) indexOf(src *Source) int {
	for i, s := range o.sources {
		if s == src {
			return i
		}
	}
	return -1
}
