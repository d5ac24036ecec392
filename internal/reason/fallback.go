package reason

import (
	"regexp"
	"strings"
)

// Some models ignore the tools protocol and answer with pseudo-code like
// print(send_email(recipient='a@b.com', subject='Hi')). The fallback parser
// recovers a structured call from that shape so the intent is not lost.
var (
	callPattern = regexp.MustCompile(`print\(\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\((.*)\)\s*\)`)
	argPattern  = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_]*)\s*=\s*('([^']*)'|"([^"]*)")`)
)

// ExtractFunctionCall scans free text for a print-wrapped function call and
// returns the parsed call, or nil when the text does not match. Only keyword
// arguments with quoted values are recognized; anything else falls through to
// plain text handling.
func ExtractFunctionCall(content string) *FunctionCall {
	m := callPattern.FindStringSubmatch(content)
	if m == nil {
		return nil
	}

	name := m[1]
	argText := strings.TrimSpace(m[2])
	args := make(map[string]any)
	for _, am := range argPattern.FindAllStringSubmatch(argText, -1) {
		value := am[3]
		if value == "" && am[4] != "" {
			value = am[4]
		}
		args[am[1]] = value
	}
	if argText != "" && len(args) == 0 {
		return nil
	}

	return &FunctionCall{Name: name, Arguments: args}
}
