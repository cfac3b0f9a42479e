package models

import "fmt"

// Source identifies which rule produced a resolved date.
type Source int

const (
	SourceLineDate Source = iota + 1
	SourceParentTask
	SourceDailyNoteDate
	SourceMetadataDate
	SourceFileCtime
)

var sourceNames = map[Source]string{
	SourceLineDate:      "line-date",
	SourceParentTask:    "parent-task",
	SourceDailyNoteDate: "daily-note-date",
	SourceMetadataDate:  "metadata-date",
	SourceFileCtime:     "file-ctime",
}

func (s Source) String() string {
	if n, ok := sourceNames[s]; ok {
		return n
	}
	return fmt.Sprintf("source(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	if _, ok := sourceNames[s]; !ok {
		return nil, fmt.Errorf("models: unknown source %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Source) UnmarshalText(b []byte) error {
	v, err := ParseSource(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSource maps a source name back to its value.
func ParseSource(name string) (Source, error) {
	for s, n := range sourceNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("models: unknown source %q", name)
}

// Confidence grades how directly a date was sourced.
type Confidence int

const (
	ConfidenceLow Confidence = iota + 1
	ConfidenceMedium
	ConfidenceHigh
)

var confidenceNames = map[Confidence]string{
	ConfidenceLow:    "low",
	ConfidenceMedium: "medium",
	ConfidenceHigh:   "high",
}

func (c Confidence) String() string {
	if n, ok := confidenceNames[c]; ok {
		return n
	}
	return fmt.Sprintf("confidence(%d)", int(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c Confidence) MarshalText() ([]byte, error) {
	if _, ok := confidenceNames[c]; !ok {
		return nil, fmt.Errorf("models: unknown confidence %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Confidence) UnmarshalText(b []byte) error {
	for v, n := range confidenceNames {
		if n == string(b) {
			*c = v
			return nil
		}
	}
	return fmt.Errorf("models: unknown confidence %q", string(b))
}

// ConfidenceForDepth grades a parent-inherited date by how far up it was found.
func ConfidenceForDepth(depth int) Confidence {
	switch {
	case depth <= 0:
		return ConfidenceHigh
	case depth == 1:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
