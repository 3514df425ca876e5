// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI observes favorite tasks for one account:
//  1. [StatusListView] : Browse cached statuses; f favorites the selected one, in-flight rows are marked
//  2. [DraftListView] : Leftover drafts; r retries, d discards
//
// tab switches between the two views.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Task events arrive through a notification bus subscription and trigger list reloads.
// Failure messages reach the status bar through a [Toaster], which the favorite service uses as its notifier.
//
// Keyboard navigation uses vim-style bindings (j/k, f, tab, r, d, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
