// Package preset converts selection state to and from the JSON preset
// document and applies loaded presets onto a selection model.
//
// Save and Load are pure and inverse; Apply is where track ids are matched
// against the current sample, and ids the sample lacks are skipped.
package preset
