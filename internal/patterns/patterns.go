// Package patterns holds the static tables used to find dates in file paths,
// frontmatter and task lines. It contains data only.
package patterns

import "regexp"

// Order says how the three capture groups of a full-date pattern map onto
// year, month and day.
type Order int

const (
	// YMD captures year, month, day.
	YMD Order = iota
	// MDY captures month, day, year.
	MDY
	// DMY captures day, month, year.
	DMY
	// SlashAmbiguous captures two leading components that may be either
	// month/day or day/month, followed by the year.
	SlashAmbiguous
	// Monthly captures year and month; the day is the first of the month.
	Monthly
	// ISOWeek captures year and ISO week number.
	ISOWeek
)

// PathPattern is one recognised date shape in a daily-note file name or path.
type PathPattern struct {
	Name  string
	Re    *regexp.Regexp
	Order Order
}

// DailyNotePatterns is tried in order and the first match wins. The ISO week
// shape precedes the monthly one, and every full-date shape precedes the
// monthly one. RE2 has no lookahead, so the monthly shape consumes the
// following character to refuse a trailing "-DD".
var DailyNotePatterns = []PathPattern{
	{Name: "YYYY-Www", Re: regexp.MustCompile(`(\d{4})-W(\d{2})(?:[^\d]|$)`), Order: ISOWeek},
	{Name: "YYYY-MM-DD", Re: regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`), Order: YMD},
	{Name: "YYYY.MM.DD", Re: regexp.MustCompile(`(\d{4})\.(\d{2})\.(\d{2})`), Order: YMD},
	{Name: "YYYY_MM_DD", Re: regexp.MustCompile(`(\d{4})_(\d{2})_(\d{2})`), Order: YMD},
	{Name: "YYYYMMDD", Re: regexp.MustCompile(`(?:^|[^\d])(\d{4})(\d{2})(\d{2})(?:[^\d]|$)`), Order: YMD},
	{Name: "MM-DD-YYYY", Re: regexp.MustCompile(`(?:^|[^\d])(\d{2})-(\d{2})-(\d{4})`), Order: MDY},
	{Name: "DD.MM.YYYY", Re: regexp.MustCompile(`(?:^|[^\d])(\d{2})\.(\d{2})\.(\d{4})`), Order: DMY},
	{Name: "MM/DD/YYYY|DD/MM/YYYY", Re: regexp.MustCompile(`(?:^|[^\d])(\d{1,2})/(\d{1,2})/(\d{4})`), Order: SlashAmbiguous},
	{Name: "YYYY-MM", Re: regexp.MustCompile(`(\d{4})-(\d{2})(?:$|[^-\d]|-(?:$|\D))`), Order: Monthly},
}

// DailyNoteFolders classify a parent directory as a daily-note location.
var DailyNoteFolders = []*regexp.Regexp{
	regexp.MustCompile(`(?i)daily[ _-]?notes?`),
	regexp.MustCompile(`(?i)journal`),
	regexp.MustCompile(`(?i)diary`),
	regexp.MustCompile(`(?i)(?:^|/)logs?(?:/|$)`),
	regexp.MustCompile(`(?:^|/)\d{4}/\d{2}(?:/|$)`),
	regexp.MustCompile(`(?:^|/)\d{4}-\d{2}(?:/|$)`),
}

// MetadataProperties lists frontmatter keys in priority order. Position in
// this table decides precedence.
var MetadataProperties = []string{
	"date",
	"created",
	"creation-date",
	"created-date",
	"creation_date",
	"day",
	"daily-note-date",
	"note-date",
	"file-date",
	"created-at",
	"created_at",
	"createdAt",
	"date-created",
	"dateCreated",
	"journal-date",
	"timestamp",
	"tp.date",
}

// NestedMetadataPaths are probed when no top-level property yields a date.
// The first block follows Dataview's file.* fields, the second Templater's.
var NestedMetadataPaths = []string{
	"file.ctime",
	"file.mtime",
	"file.cday",
	"file.mday",
	"file.created",
	"file.modified",
	"tp.date",
	"tp.file.creation_date",
	"tp.file.last_modified_date",
}

// ArchivalProperty matches property names that may legitimately carry old dates.
var ArchivalProperty = regexp.MustCompile(`(?i)creation|created|original|archive|historical|legacy`)

// MetadataLayouts are explicit layouts tried against string frontmatter
// values, in order. Day-first and month-first layouts that share a separator
// are kept apart by their separator, as in the original format table.
var MetadataLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006",
	"02-01-2006",
	"2006.01.02",
	"02.01.2006",
	"2006/01/02",
	"1/2/2006",
	"20060102",
}

// LocaleLayouts are the last-resort human formats.
var LocaleLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"Monday, January 2, 2006",
	"Mon, 02 Jan 2006",
	"Mon Jan 2 2006",
}

// LinePattern is a date shape searched for inside task text.
type LinePattern struct {
	Name  string
	Re    *regexp.Regexp
	Order Order
}

// LineDatePatterns are literal dates inside a line, tried in order.
var LineDatePatterns = []LinePattern{
	{Name: "ISO", Re: regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`), Order: YMD},
	{Name: "MM/DD/YYYY", Re: regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`), Order: MDY},
	{Name: "DD-MM-YYYY", Re: regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4})\b`), Order: DMY},
}

// LineRelative matches bare relative day words inside a line.
var LineRelative = regexp.MustCompile(`(?i)\b(today|tomorrow|yesterday)\b`)

// LineWeekday matches a bare weekday name inside a line.
var LineWeekday = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)

// RelativeOffset matches "+2d", "-1w", "+3m", "-1y".
var RelativeOffset = regexp.MustCompile(`^([+-])(\d+)\s*([dwmy])$`)

// NaturalWeekday matches "friday", "next friday", "last monday", "this sunday".
var NaturalWeekday = regexp.MustCompile(`^(?:(next|last|this)\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)$`)

// NaturalPeriod matches "next week", "last month".
var NaturalPeriod = regexp.MustCompile(`^(next|last)\s+(week|month)$`)
