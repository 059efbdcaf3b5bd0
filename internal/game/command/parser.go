package command

import "strings"

// ParseResult holds the parsed command name and arguments from a text line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command.
	Args []string
	// RawArgs is the raw text after the command.
	RawArgs string
}

// Parse splits a text line into a command and arguments.
//
// Precondition: line should be trimmed of leading/trailing whitespace.
// Postcondition: Returns a ParseResult. If line is empty, Command is empty.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(line)
	if line == "" {
		return ParseResult{}
	}

	spaceIdx := strings.IndexAny(line, " \t")
	if spaceIdx < 0 {
		return ParseResult{
			Command: strings.ToLower(line),
		}
	}

	cmd := strings.ToLower(line[:spaceIdx])
	rest := strings.TrimSpace(line[spaceIdx+1:])

	var args []string
	if rest != "" {
		args = strings.Fields(rest)
	}

	return ParseResult{
		Command: cmd,
		Args:    args,
		RawArgs: rest,
	}
}

// ParseLine splits line on ';' and parses each non-empty part, so that a
// single line can carry a key sequence such as "press d; tap j; release d".
//
// Postcondition: Returns the parsed commands in input order; empty parts are dropped.
func ParseLine(line string) []ParseResult {
	parts := strings.Split(line, ";")
	results := make([]ParseResult, 0, len(parts))
	for _, part := range parts {
		if pr := Parse(part); pr.Command != "" {
			results = append(results, pr)
		}
	}
	return results
}
