// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has two views and one overlay:
//  1. [SearchView] : Search the catalog and file the selected book into a list with 1/2/3
//  2. [CollectionsView] : Browse the three lists as tabs and move books between them
//  3. The auth form : Email and password sign-in or sign-up, or ctrl+o for the browser flow
//
// The [Model] implements bubbletea's Init/Update/View pattern, receiving results via the Msg union type.
// Searches and collection loads carry sequence numbers so a late response never overwrites a newer one.
// Assembly progress flows through a channel from the CollectionEngine.
//
// The model observes the session through the auth gateway's subscription and releases it in [Model.Close].
// Failed collection actions raise an alert that blocks input until dismissed.
package ui
