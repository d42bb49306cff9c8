package models

import "strings"

// Speaker identifies which of the two cast members delivers a line.
type Speaker int

const (
	SpeakerMan Speaker = iota
	SpeakerWoman
)

func (s Speaker) String() string {
	if s == SpeakerWoman {
		return "woman"
	}
	return "man"
}

// SpeakerFor attributes a generator label to a cast member. Labels are not
// guaranteed to be exact-cased, so any label containing "woman" routes to
// the woman and everything else routes to the man.
func SpeakerFor(label string) Speaker {
	if strings.Contains(strings.ToLower(label), "woman") {
		return SpeakerWoman
	}
	return SpeakerMan
}

// DialogueLine is one speaker turn of the generated script. Ordering is
// significant: lines render and concatenate in generator order.
type DialogueLine struct {
	Speaker string `json:"speaker"`
	Line    string `json:"line"`
}

// Attribution resolves the line's speaker label.
func (l DialogueLine) Attribution() Speaker {
	return SpeakerFor(l.Speaker)
}

// Dialogue is the ordered script returned by the generator.
type Dialogue []DialogueLine

// Filter drops malformed entries (missing speaker or text). The result may
// be empty; callers treat an empty filtered dialogue as a hard failure.
func (d Dialogue) Filter() Dialogue {
	filtered := make(Dialogue, 0, len(d))
	for _, line := range d {
		if strings.TrimSpace(line.Speaker) == "" || strings.TrimSpace(line.Line) == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	return filtered
}
