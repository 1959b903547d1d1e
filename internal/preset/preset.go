package preset

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"mkvbatch/internal/logging"
	"mkvbatch/internal/selection"
)

// Document is the persisted preset format. Missing keys decode to zero values.
type Document struct {
	GlobalProperties GlobalProperties        `json:"global_properties"`
	Tracks           map[string][]TrackEntry `json:"tracks"`
}

type GlobalProperties struct {
	Title                   string `json:"title"`
	IncludeChaptersFile1    bool   `json:"include_chapters_file1"`
	IncludeChaptersFile2    bool   `json:"include_chapters_file2"`
	IncludeGlobalTagsFile1  bool   `json:"include_global_tags_file1"`
	IncludeGlobalTagsFile2  bool   `json:"include_global_tags_file2"`
	IncludeAttachmentsFile1 bool   `json:"include_attachments_file1"`
	IncludeAttachmentsFile2 bool   `json:"include_attachments_file2"`
}

// TrackEntry is one per-track record. TrackID is a pointer so entries that
// omit it can be told apart from track 0.
type TrackEntry struct {
	TrackID  *int   `json:"track_id"`
	Include  bool   `json:"include"`
	Language string `json:"language"`
	Name     string `json:"name"`
	Default  bool   `json:"default"`
	Forced   bool   `json:"forced"`
}

// Save converts a snapshot into a document.
func Save(snap selection.Snapshot) Document {
	g := snap.Global
	doc := Document{GlobalProperties: GlobalProperties{
		Title:                   g.Title,
		IncludeChaptersFile1:    g.File1.Chapters,
		IncludeChaptersFile2:    g.File2.Chapters,
		IncludeGlobalTagsFile1:  g.File1.GlobalTags,
		IncludeGlobalTagsFile2:  g.File2.GlobalTags,
		IncludeAttachmentsFile1: g.File1.Attachments,
		IncludeAttachmentsFile2: g.File2.Attachments,
	}}
	if snap.Tracks == nil {
		return doc
	}
	doc.Tracks = make(map[string][]TrackEntry, len(snap.Tracks))
	for slot, list := range snap.Tracks {
		if list == nil {
			doc.Tracks[slot.Key()] = nil
			continue
		}
		entries := make([]TrackEntry, 0, len(list))
		for _, sel := range list {
			id := sel.TrackID
			entries = append(entries, TrackEntry{
				TrackID:  &id,
				Include:  sel.Include,
				Language: sel.Language,
				Name:     sel.Name,
				Default:  sel.Default,
				Forced:   sel.Forced,
			})
		}
		doc.Tracks[slot.Key()] = entries
	}
	return doc
}

// Load converts a document into a snapshot. Unknown slot keys and entries
// without a track id are dropped; a repeated id keeps its first entry.
func Load(doc Document) selection.Snapshot {
	gp := doc.GlobalProperties
	snap := selection.Snapshot{Global: selection.GlobalOverrides{
		Title: gp.Title,
		File1: selection.SectionToggles{
			Chapters:    gp.IncludeChaptersFile1,
			GlobalTags:  gp.IncludeGlobalTagsFile1,
			Attachments: gp.IncludeAttachmentsFile1,
		},
		File2: selection.SectionToggles{
			Chapters:    gp.IncludeChaptersFile2,
			GlobalTags:  gp.IncludeGlobalTagsFile2,
			Attachments: gp.IncludeAttachmentsFile2,
		},
	}}
	if doc.Tracks == nil {
		return snap
	}
	snap.Tracks = make(map[selection.Slot][]selection.TrackSelection, len(doc.Tracks))
	for key, entries := range doc.Tracks {
		slot, err := selection.ParseSlot(key)
		if err != nil {
			continue
		}
		if entries == nil {
			snap.Tracks[slot] = nil
			continue
		}
		list := make([]selection.TrackSelection, 0, len(entries))
		seen := make(map[int]struct{}, len(entries))
		for _, e := range entries {
			if e.TrackID == nil {
				continue
			}
			if _, dup := seen[*e.TrackID]; dup {
				continue
			}
			seen[*e.TrackID] = struct{}{}
			list = append(list, selection.TrackSelection{
				TrackID:  *e.TrackID,
				Include:  e.Include,
				Language: e.Language,
				Name:     e.Name,
				Default:  e.Default,
				Forced:   e.Forced,
			})
		}
		snap.Tracks[slot] = list
	}
	return snap
}

// Encode renders doc as indented JSON.
func Encode(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode preset: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a preset document.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode preset: %w", err)
	}
	return doc, nil
}

// ReadFile loads and decodes the preset at path.
func ReadFile(path string) (selection.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return selection.Snapshot{}, fmt.Errorf("read preset: %w", err)
	}
	doc, err := Decode(data)
	if err != nil {
		return selection.Snapshot{}, err
	}
	return Load(doc), nil
}

// WriteFile saves snap to path, replacing any existing file.
func WriteFile(path string, snap selection.Snapshot) error {
	data, err := Encode(Save(snap))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create preset directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write preset: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write preset: %w", err)
	}
	return nil
}

// Skipped identifies a preset entry whose track id the model does not have.
type Skipped struct {
	Slot    selection.Slot
	TrackID int
}

// Apply copies snap's global overrides and every matching track selection
// onto model. Entries whose id is absent from the model's slot are skipped
// and returned in slot then id order.
func Apply(model *selection.Model, snap selection.Snapshot, logger *slog.Logger) []Skipped {
	logger = logging.NewComponentLogger(logger, "preset")
	model.SetGlobal(snap.Global)

	var skipped []Skipped
	for _, slot := range selection.Slots {
		for _, sel := range snap.Tracks[slot] {
			if model.Set(slot, sel) {
				continue
			}
			skipped = append(skipped, Skipped{Slot: slot, TrackID: sel.TrackID})
			logging.WarnWithContext(logger, "preset track not present in sample", "preset_track_skipped",
				logging.Int(logging.FieldSlot, int(slot)),
				logging.Int(logging.FieldTrackID, sel.TrackID),
				logging.String(logging.FieldErrorHint, "preset was saved for a different track layout"),
				logging.String(logging.FieldImpact, "entry ignored"),
			)
		}
	}
	sort.SliceStable(skipped, func(i, j int) bool {
		if skipped[i].Slot != skipped[j].Slot {
			return skipped[i].Slot < skipped[j].Slot
		}
		return skipped[i].TrackID < skipped[j].TrackID
	})
	return skipped
}
