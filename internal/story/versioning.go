// Package story decides how a story's content changes hands: when the
// outgoing text is archived as a numbered version and which number it gets.
//
// A story has one current content slot. Replacing non-empty content archives
// it first; replacing empty content archives nothing. Equal content is still
// replaced, so saving the same text twice produces a version.
package story

import "time"

// Transition is the outcome of replacing a story's content.
type Transition struct {
	// Archive is true when the outgoing content must be stored as a version.
	Archive bool
	// Version is the archived version number; zero when Archive is false.
	Version int
	// Archived is the outgoing content to store.
	Archived string
	// Content becomes the story's current content.
	Content string
	// At stamps both the version and the story's updated_at.
	At time.Time
}

// Plan computes the transition from current to next. latest is the highest
// version number already stored for the story, or zero for none. Callers must
// read latest and apply the transition under the same story lock.
func Plan(current string, latest int, next string, now time.Time) Transition {
	t := Transition{Content: next, At: now}
	if current == "" {
		return t
	}
	t.Archive = true
	t.Version = NextVersion(latest)
	t.Archived = current
	return t
}

// NextVersion returns the number following latest; versions start at 1.
func NextVersion(latest int) int {
	if latest < 0 {
		latest = 0
	}
	return latest + 1
}
