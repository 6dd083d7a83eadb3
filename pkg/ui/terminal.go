package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Banner is printed at the start of an interactive run
const Banner = `
  ┌───────────────────────────────────────────────┐
  │  THEBANSCRAPER  ·  Valley of the Kings imagery │
  └───────────────────────────────────────────────┘
`

var (
	mu           sync.RWMutex
	out          io.Writer = os.Stdout
	colorEnabled           = detectColor(os.Stdout)
	quietMode    bool
)

// Color functions for terminal output. They return the text unchanged
// when colour is disabled.
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

func detectColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !ColorEnabled() {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// SetOutput redirects all ui output. Colour is switched on only when w is
// a terminal.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	if f, ok := w.(*os.File); ok {
		colorEnabled = detectColor(f)
	} else {
		colorEnabled = false
	}
}

// Output returns the writer ui prints to
func Output() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return out
}

// ColorEnabled reports whether ANSI colours are written
func ColorEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return colorEnabled
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(quiet bool) {
	mu.Lock()
	defer mu.Unlock()
	quietMode = quiet
}

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return quietMode
}

func printf(format string, args ...interface{}) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintf(Output(), format, args...)
}

// PrintBanner prints the banner in cyan
func PrintBanner() {
	printf("%s", Cyan(Banner))
}

// PrintError prints an error message in red. Errors are printed in quiet mode too.
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output(), Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output(), Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	printf("%s\n", Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		printf("%s\n", Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		printf("%s\n", Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	printf("%s\n", Magenta(msg))
}
