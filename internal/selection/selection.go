package selection

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"mkvbatch/internal/media/mkvinfo"
	"mkvbatch/internal/services"
)

// Slot is one of the two input roles every pair is split into.
type Slot int

const (
	Slot1 Slot = 1
	Slot2 Slot = 2
)

// Slots lists the slots in merge order.
var Slots = []Slot{Slot1, Slot2}

// Key returns the slot identifier used in preset documents ("1" or "2").
func (s Slot) Key() string {
	return strconv.Itoa(int(s))
}

func (s Slot) Valid() bool {
	return s == Slot1 || s == Slot2
}

// ParseSlot accepts "1" or "2".
func ParseSlot(value string) (Slot, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || !Slot(n).Valid() {
		return 0, fmt.Errorf("invalid slot %q: want 1 or 2", value)
	}
	return Slot(n), nil
}

// DefaultLanguage is assigned to tracks that report no language.
const DefaultLanguage = "und"

// TrackSelection is the user's override record for one sample track.
type TrackSelection struct {
	TrackID  int
	Include  bool
	Language string
	Name     string
	Default  bool
	Forced   bool
}

// SectionToggles controls whether a slot's optional sections reach the output.
type SectionToggles struct {
	Chapters    bool
	GlobalTags  bool
	Attachments bool
}

// GlobalOverrides holds the output title and the six section toggles.
type GlobalOverrides struct {
	Title string
	File1 SectionToggles
	File2 SectionToggles
}

// Sections returns the toggles for slot.
func (g GlobalOverrides) Sections(slot Slot) SectionToggles {
	if slot == Slot2 {
		return g.File2
	}
	return g.File1
}

// SetSections replaces the toggles for slot.
func (g *GlobalOverrides) SetSections(slot Slot, toggles SectionToggles) {
	if slot == Slot2 {
		g.File2 = toggles
		return
	}
	g.File1 = toggles
}

// Snapshot is an immutable copy of the selection state.
type Snapshot struct {
	Global GlobalOverrides
	Tracks map[Slot][]TrackSelection
}

// Clone returns a deep copy. Nil and empty track lists are preserved as-is.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Global: s.Global}
	if s.Tracks != nil {
		out.Tracks = make(map[Slot][]TrackSelection, len(s.Tracks))
		for slot, list := range s.Tracks {
			if list == nil {
				out.Tracks[slot] = nil
				continue
			}
			out.Tracks[slot] = append(make([]TrackSelection, 0, len(list)), list...)
		}
	}
	return out
}

// Model is the mutable selection state for one sample pair. It is safe for
// concurrent use.
type Model struct {
	mu     sync.RWMutex
	global GlobalOverrides
	tracks map[Slot][]TrackSelection
	info   map[Slot][]mkvinfo.Track
}

// NewModel returns an empty model with the given default title and all
// section toggles off.
func NewModel(title string) *Model {
	return &Model{
		global: GlobalOverrides{Title: title},
		tracks: make(map[Slot][]TrackSelection, len(Slots)),
		info:   make(map[Slot][]mkvinfo.Track, len(Slots)),
	}
}

// Seed replaces slot's selections with one record per track, included by
// default and carrying the track's current properties.
func (m *Model) Seed(slot Slot, tracks []mkvinfo.Track) {
	selections := make([]TrackSelection, 0, len(tracks))
	for _, t := range tracks {
		lang := strings.TrimSpace(t.Properties.Language)
		if lang == "" {
			lang = DefaultLanguage
		}
		selections = append(selections, TrackSelection{
			TrackID:  t.ID,
			Include:  true,
			Language: lang,
			Name:     t.Properties.Name,
			Default:  t.Properties.Default,
			Forced:   t.Properties.Forced,
		})
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks[slot] = selections
	m.info[slot] = append([]mkvinfo.Track(nil), tracks...)
}

// Tracks returns a copy of slot's selections in track order.
func (m *Model) Tracks(slot Slot) []TrackSelection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]TrackSelection(nil), m.tracks[slot]...)
}

// TrackInfo returns the probed track description backing a selection.
func (m *Model) TrackInfo(slot Slot, id int) (mkvinfo.Track, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.info[slot] {
		if t.ID == id {
			return t, true
		}
	}
	return mkvinfo.Track{}, false
}

// Has reports whether slot has a selection for id.
func (m *Model) Has(slot Slot, id int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return indexOf(m.tracks[slot], id) >= 0
}

// Set replaces the selection with sel.TrackID. It reports false and changes
// nothing when the slot has no such track.
func (m *Model) Set(slot Slot, sel TrackSelection) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := indexOf(m.tracks[slot], sel.TrackID)
	if idx < 0 {
		return false
	}
	m.tracks[slot][idx] = sel
	return true
}

// Update applies fn to the selection for id. Values are accepted verbatim.
func (m *Model) Update(slot Slot, id int, fn func(*TrackSelection)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := indexOf(m.tracks[slot], id)
	if idx < 0 {
		return services.Wrap(services.ErrTrackMismatch, "selection", "update", fmt.Sprintf("slot %d has no track %d", slot, id), nil)
	}
	sel := m.tracks[slot][idx]
	fn(&sel)
	sel.TrackID = id
	m.tracks[slot][idx] = sel
	return nil
}

func (m *Model) Global() GlobalOverrides {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.global
}

func (m *Model) SetGlobal(g GlobalOverrides) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.global = g
}

// Snapshot freezes the current state.
func (m *Model) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := Snapshot{Global: m.global, Tracks: make(map[Slot][]TrackSelection, len(Slots))}
	for _, slot := range Slots {
		snap.Tracks[slot] = append([]TrackSelection{}, m.tracks[slot]...)
	}
	return snap
}

func indexOf(list []TrackSelection, id int) int {
	for i, sel := range list {
		if sel.TrackID == id {
			return i
		}
	}
	return -1
}
