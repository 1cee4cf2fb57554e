// Package ui implements an interactive library browser using bubbletea's Elm architecture.
//
// The browser has two views:
//  1. [BrowseView] : a list of the refs under the current directory uri
//  2. [TrackView] : details of a selected track
//
// Selecting an artist or album pushes its children onto a stack; esc pops back
// toward the root. Keyboard navigation uses vim-style bindings (j/k, enter, esc, q)
// with contextual help displayed via charmbracelet/bubbles/help.
package ui
