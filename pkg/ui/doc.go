// Package ui prints progress and results to the terminal.
//
// Colours are used only when stdout is a terminal and NO_COLOR is unset.
// Quiet mode silences everything except errors.
package ui
