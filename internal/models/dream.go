package models

// DreamAnalysis carries the structured metadata attached to a dream
// description: extracted keywords, detected emotions, and a free-text
// visual description. It is sent verbatim to the generation backend and
// stored alongside the resulting model record.
type DreamAnalysis struct {
	Keywords          []string `json:"keywords"`
	Emotions          []string `json:"emotions"`
	VisualDescription string   `json:"visualDescription"`
}

// EmptyAnalysis returns the default analysis used when none is supplied
func EmptyAnalysis() DreamAnalysis {
	return DreamAnalysis{
		Keywords: []string{},
		Emotions: []string{},
	}
}
