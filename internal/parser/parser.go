// Package parser extracts frontmatter, task lines, and clock times from Markdown content.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/dayfinder/internal/calendar"
	"github.com/starford/dayfinder/internal/models"
)

var (
	taskRe = regexp.MustCompile(`^(\s*)[-*+] \[(.)\] (.*)$`)
	timeRe = regexp.MustCompile(`(\d{1,2}):(\d{2})(?:\s*(?:-|~|～|–|—|to)\s*(\d{1,2}):(\d{2}))?`)

	emojiDateRe = regexp.MustCompile(`(🛫|📅|⏳|➕)\s*(\d{4}-\d{2}-\d{2})(?:[ T](\d{1,2}:\d{2}))?`)
	fieldDateRe = regexp.MustCompile(`\[(start|due|scheduled|created)::\s*(\d{4}-\d{2}-\d{2})(?:[ T](\d{1,2}:\d{2}))?\s*\]`)
	literalRe   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4}|\d{1,2}-\d{1,2}-\d{4}`)
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	Lines       []string
	Tasks       []*models.Task
}

// Parse splits frontmatter from body and extracts checkbox tasks.
// path becomes part of every task id, and task line numbers index the
// whole file, frontmatter included.
func Parse(path string, data []byte) (*Result, error) {
	fm, body, err := SplitFrontmatter(data)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Lines:       lines,
		Tasks:       ExtractTasks(path, lines),
	}, nil
}

// SplitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func SplitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter: treat everything as body.
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML is not fatal: the note simply has no usable metadata.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// TaskID is the stable id of the task on a zero-based line of a file.
func TaskID(path string, line int) string {
	return fmt.Sprintf("%s:%d", path, line)
}

// ExtractTasks returns every checkbox line as a task. A task's parent is the
// nearest preceding task with strictly smaller indentation; a non-task,
// non-blank line at indentation zero ends the nesting.
func ExtractTasks(path string, lines []string) []*models.Task {
	type open struct {
		indent int
		id     string
	}
	var stack []open
	var out []*models.Task

	for i, line := range lines {
		m := taskRe.FindStringSubmatch(line)
		if m == nil {
			if strings.TrimSpace(line) != "" && indentWidth(line) == 0 {
				stack = stack[:0]
			}
			continue
		}
		indent := indentWidth(m[1])
		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}

		t := &models.Task{
			ID:       TaskID(path, i),
			Content:  strings.TrimSpace(m[3]),
			FilePath: path,
			Line:     i,
			Metadata: taskDates(m[3]),
		}
		if len(stack) > 0 {
			t.Metadata.Parent = stack[len(stack)-1].id
		}
		out = append(out, t)
		stack = append(stack, open{indent: indent, id: t.ID})
	}
	return out
}

// indentWidth counts leading whitespace, expanding tabs to four columns.
func indentWidth(s string) int {
	w := 0
	for _, r := range s {
		switch r {
		case ' ':
			w++
		case '\t':
			w += 4
		default:
			return w
		}
	}
	return w
}

// taskDates reads Obsidian Tasks emoji dates and Dataview inline fields.
// A date that carries a time also fills the matching EnhancedDates entry.
func taskDates(text string) models.TaskMetadata {
	var md models.TaskMetadata
	set := func(kind, date, clock string) {
		day, err := calendar.ParseLayout("2006-01-02", date)
		if err != nil {
			return
		}
		d := day.Time()
		var dt *time.Time
		if clock != "" {
			if full, err := calendar.ParseLayout("2006-01-02 15:04", date+" "+clock); err == nil {
				t := full.Time()
				dt = &t
			}
		}
		switch kind {
		case "🛫", "start":
			md.StartDate = &d
			if dt != nil {
				enhanced(&md).StartDateTime = dt
			}
		case "📅", "due":
			md.DueDate = &d
			if dt != nil {
				enhanced(&md).DueDateTime = dt
			}
		case "⏳", "scheduled":
			md.ScheduledDate = &d
			if dt != nil {
				enhanced(&md).ScheduledDateTime = dt
			}
		case "➕", "created":
			md.CreatedDate = &d
		}
	}
	for _, m := range emojiDateRe.FindAllStringSubmatch(text, -1) {
		set(m[1], m[2], m[3])
	}
	for _, m := range fieldDateRe.FindAllStringSubmatch(text, -1) {
		set(m[1], m[2], m[3])
	}
	return md
}

func enhanced(md *models.TaskMetadata) *models.EnhancedDates {
	if md.EnhancedDates == nil {
		md.EnhancedDates = &models.EnhancedDates{}
	}
	return md.EnhancedDates
}

// ExtractTime returns the first clock time on a line, with its range end
// when the time is written as a range such as "12:00～13:00".
func ExtractTime(line string) (*models.TimeComponent, bool) {
	m := timeRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	start, ok := clock(m[1], m[2], m[0])
	if !ok {
		return nil, false
	}
	if m[3] != "" {
		if end, ok := clock(m[3], m[4], m[0]); ok {
			start.IsRange = true
			start.RangePartner = end
		}
	}
	return start, true
}

func clock(h, mm, text string) (*models.TimeComponent, bool) {
	hour, err := strconv.Atoi(h)
	if err != nil || hour > 23 {
		return nil, false
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute > 59 {
		return nil, false
	}
	return &models.TimeComponent{Hour: hour, Minute: minute, OriginalText: text}, true
}

// IsTimeOnly reports whether line carries a clock time but no literal
// calendar date, which is the case the resolver exists for.
func IsTimeOnly(line string) bool {
	if _, ok := ExtractTime(line); !ok {
		return false
	}
	return !literalRe.MatchString(line)
}
