package cron

import (
	"strings"
	"unicode"
)

const rebootDirective = "@reboot"

// aliases expands whole-line shorthands to their five fields. "@anually" is
// a misspelling that older crontabs written by this tool contain.
var aliases = map[string]string{
	"@yearly":   "0 0 1 1 *",
	"@annually": "0 0 1 1 *",
	"@anually":  "0 0 1 1 *",
	"@monthly":  "0 0 1 * *",
	"@weekly":   "0 0 * * 0",
	"@daily":    "0 0 * * *",
	"@midnight": "0 0 * * *",
	"@hourly":   "0 * * * *",
}

// Parse parses a schedule line: "@reboot [command]", "@alias [command]" or
// five field expressions followed by an optional command.
func Parse(line string) (*Entry, error) {
	body := strings.TrimSpace(line)

	if strings.HasPrefix(body, "@") {
		token, rest := nextToken(body)
		if strings.EqualFold(token, rebootDirective) {
			return &Entry{
				text:    line,
				flags:   FlagReboot,
				command: strings.TrimSpace(rest),
			}, nil
		}
		expansion, ok := aliases[strings.ToLower(token)]
		if !ok {
			return nil, malformedf("line", line, "unknown directive %q", token)
		}
		body = expansion + " " + rest
	}

	var exprs [numFields]string
	rest := body
	for i := range exprs {
		exprs[i], rest = nextToken(rest)
		if exprs[i] == "" {
			return nil, malformedf("line", line, "expected %d fields, got %d", numFields, i)
		}
	}

	entry := &Entry{
		text:    line,
		command: strings.TrimSpace(rest),
	}
	for _, f := range Fields() {
		set, star, err := parseField(f, exprs[f])
		if err != nil {
			return nil, err
		}
		if star && (f == DayOfMonth || f == DayOfWeek) {
			entry.flags |= FlagDomDowStar
		}
		entry.fields[f] = set
	}
	return entry, nil
}

// MustParse is like Parse but panics on error. It is meant for schedules
// known at compile time.
func MustParse(line string) *Entry {
	e, err := Parse(line)
	if err != nil {
		panic(err)
	}
	return e
}

// nextToken splits off the first whitespace separated token of s.
func nextToken(s string) (token, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := strings.IndexFunc(s, unicode.IsSpace)
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}
