package mcpserver

// ResolutionRules describes how a time-only task gets its date. It is served
// to LLM clients so they can judge a result's confidence.
const ResolutionRules = `# Date Resolution Rules

A task such as ` + "`- [ ] 12:00～13:00 lunch`" + ` names a time but no date. The date is
taken from the first source below that yields one.

| # | Source | Confidence | Notes |
|---|--------|------------|-------|
| 1 | ` + "`line-date`" + ` | high | A date on the task line, else within 3 lines above or below (first match in line order). Accepts ` + "`YYYY-MM-DD`, `MM/DD/YYYY`, `DD-MM-YYYY`" + `, today/tomorrow/yesterday, and weekday names (always the next occurrence, never today). |
| 2 | ` + "`parent-task`" + ` | high / medium / low | The start, due, scheduled, or created date of the parent task (high), grandparent (medium), or great-grandparent (low). Deeper ancestors are ignored. |
| 3 | ` + "`daily-note-date`" + ` | high | The file is a daily note: its name is just a date, or it lives in a daily-notes folder. |
| 4 | ` + "`metadata-date`" + ` | medium | A frontmatter property such as ` + "`date`, `created`, `creation-date`" + `, or a Dataview/Templater nested field. |
| 5 | ` + "`daily-note-date`" + ` | medium | A date found elsewhere in the file name or path. |
| 6 | ` + "`file-ctime`" + ` | low | The file creation time. ` + "`used_fallback`" + ` is true. |

## Caveats

- File facts are cached for five minutes. An edited file may report its old
  frontmatter date until the entry expires or the cache is cleared.
- Slash dates with both parts at most 12 are read month-first unless the
  server is configured for day-first dates.
`
