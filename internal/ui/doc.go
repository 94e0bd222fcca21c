// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [CatalogView] : Search and page through the catalog with each track's rating
//  2. [DetailView] : Read a track's reviews, rate it and toggle the like
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg
// union type. Controller state arrives through their subscription channels, one pending value at a time, so the
// view always renders the latest snapshot. Signing out anywhere resets the TUI to a fresh catalog.
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, enter, esc, /, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
