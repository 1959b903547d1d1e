package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mkvbatch/internal/selection"
)

// selectionFlags are the command-line edits applied to a sample's selection
// model after any preset.
type selectionFlags struct {
	title       string
	chapters    []string
	globalTags  []string
	attachments []string
	exclude     []string
	include     []string
	languages   []string
	names       []string
	defaults    []string
	forced      []string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.title, "title", "", "Output title (defaults to the sample's title or file name)")
	flags.StringSliceVar(&f.chapters, "chapters", nil, "Slots whose chapters are kept, e.g. 1,2 (empty keeps none)")
	flags.StringSliceVar(&f.globalTags, "global-tags", nil, "Slots whose global tags are kept")
	flags.StringSliceVar(&f.attachments, "attachments", nil, "Slots whose attachments are kept")
	flags.StringArrayVar(&f.exclude, "exclude", nil, "Drop a track, as SLOT:ID (repeatable)")
	flags.StringArrayVar(&f.include, "include", nil, "Keep a track, as SLOT:ID (repeatable)")
	flags.StringArrayVar(&f.languages, "language", nil, "Set a track language, as SLOT:ID=CODE (repeatable)")
	flags.StringArrayVar(&f.names, "name", nil, "Set a track name, as SLOT:ID=NAME (repeatable)")
	flags.StringArrayVar(&f.defaults, "default", nil, "Set the default flag, as SLOT:ID=yes|no (repeatable)")
	flags.StringArrayVar(&f.forced, "forced", nil, "Set the forced flag, as SLOT:ID=yes|no (repeatable)")
}

// apply edits model. changed reports whether a flag was given explicitly.
func (f *selectionFlags) apply(model *selection.Model, changed func(string) bool) error {
	global := model.Global()
	if changed("title") {
		global.Title = strings.TrimSpace(f.title)
	}
	sectionFlags := []struct {
		name   string
		values []string
		set    func(*selection.SectionToggles, bool)
	}{
		{"chapters", f.chapters, func(t *selection.SectionToggles, v bool) { t.Chapters = v }},
		{"global-tags", f.globalTags, func(t *selection.SectionToggles, v bool) { t.GlobalTags = v }},
		{"attachments", f.attachments, func(t *selection.SectionToggles, v bool) { t.Attachments = v }},
	}
	for _, sf := range sectionFlags {
		if !changed(sf.name) {
			continue
		}
		slots, err := parseSlotList(sf.values)
		if err != nil {
			return fmt.Errorf("--%s: %w", sf.name, err)
		}
		for _, slot := range selection.Slots {
			toggles := global.Sections(slot)
			sf.set(&toggles, slots[slot])
			global.SetSections(slot, toggles)
		}
	}
	model.SetGlobal(global)

	edits := []struct {
		name   string
		values []string
		assign bool
		apply  func(*selection.TrackSelection, string) error
	}{
		{"exclude", f.exclude, false, func(s *selection.TrackSelection, _ string) error { s.Include = false; return nil }},
		{"include", f.include, false, func(s *selection.TrackSelection, _ string) error { s.Include = true; return nil }},
		{"language", f.languages, true, func(s *selection.TrackSelection, v string) error { s.Language = v; return nil }},
		{"name", f.names, true, func(s *selection.TrackSelection, v string) error { s.Name = v; return nil }},
		{"default", f.defaults, true, func(s *selection.TrackSelection, v string) error {
			b, err := parseYesNo(v)
			s.Default = b
			return err
		}},
		{"forced", f.forced, true, func(s *selection.TrackSelection, v string) error {
			b, err := parseYesNo(v)
			s.Forced = b
			return err
		}},
	}
	for _, edit := range edits {
		for _, raw := range edit.values {
			ref, value := raw, ""
			if edit.assign {
				var ok bool
				ref, value, ok = strings.Cut(raw, "=")
				if !ok {
					return fmt.Errorf("--%s %q: want SLOT:ID=VALUE", edit.name, raw)
				}
			}
			slot, id, err := parseTrackRef(ref)
			if err != nil {
				return fmt.Errorf("--%s: %w", edit.name, err)
			}
			var applyErr error
			if err := model.Update(slot, id, func(sel *selection.TrackSelection) {
				applyErr = edit.apply(sel, strings.TrimSpace(value))
			}); err != nil {
				return fmt.Errorf("--%s %q: %w", edit.name, raw, err)
			}
			if applyErr != nil {
				return fmt.Errorf("--%s %q: %w", edit.name, raw, applyErr)
			}
		}
	}
	return nil
}

// parseSlotList reads values such as ["1", "2"]; "none" and empty entries
// select no slot.
func parseSlotList(values []string) (map[selection.Slot]bool, error) {
	slots := make(map[selection.Slot]bool, len(selection.Slots))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" || strings.EqualFold(value, "none") {
			continue
		}
		slot, err := selection.ParseSlot(value)
		if err != nil {
			return nil, err
		}
		slots[slot] = true
	}
	return slots, nil
}

// parseTrackRef reads "SLOT:ID".
func parseTrackRef(value string) (selection.Slot, int, error) {
	slotPart, idPart, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, 0, fmt.Errorf("track reference %q: want SLOT:ID", value)
	}
	slot, err := selection.ParseSlot(slotPart)
	if err != nil {
		return 0, 0, err
	}
	id, err := strconv.Atoi(strings.TrimSpace(idPart))
	if err != nil || id < 0 {
		return 0, 0, fmt.Errorf("track reference %q: invalid track id", value)
	}
	return slot, id, nil
}

func parseYesNo(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "y", "true", "1", "on":
		return true, nil
	case "no", "n", "false", "0", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid flag value %q: want yes or no", value)
}
