package errors

import (
	"fmt"
	"strings"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// colorEnabled controls whether ANSI colors are used.
var colorEnabled = true

// DisableColors disables ANSI color output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors enables ANSI color output.
func EnableColors() {
	colorEnabled = true
}

// color wraps text in ANSI color codes if colors are enabled.
func color(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + colorReset
}

func red(text string) string    { return color(colorRed, text) }
func yellow(text string) string { return color(colorYellow, text) }
func gray(text string) string   { return color(colorGray, text) }
func bold(text string) string   { return color(colorBold, text) }

// Format renders an error for terminal output. Structured Errors print
// their code, category, detail and suggestion; anything else prints as-is.
func Format(err error) string {
	le, ok := err.(*Error)
	if !ok {
		return red("error: ") + err.Error()
	}

	var b strings.Builder
	header := le.Message
	if le.Code != "" {
		header = fmt.Sprintf("[%s] %s", le.Code, le.Message)
	}
	b.WriteString(red(bold(header)))
	if le.Category != "" {
		b.WriteString(gray(" (" + string(le.Category) + ")"))
	}
	b.WriteString("\n")

	if le.Detail != "" {
		b.WriteString("  " + le.Detail + "\n")
	}
	if le.Wrapped != nil {
		b.WriteString(gray("  caused by: "+le.Wrapped.Error()) + "\n")
	}
	if le.Suggestion != "" {
		b.WriteString(yellow("  hint: ") + le.Suggestion + "\n")
	}
	return b.String()
}
