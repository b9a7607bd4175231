// Package ui holds the lipgloss palette used to style console output.
//
// There is no interactive interface: the CLI prints plain lines and uses [Styles] for headers and status marks.
// Colors are dropped automatically when stdout is not a terminal.
package ui
