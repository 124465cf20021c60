// Package render turns a ntfy message event into the MarkdownV2 text that
// gets sent to Telegram.
//
// It is pure: no logging, no ambient configuration, no I/O. The display
// toggles travel in an Options value so every call is reproducible.
//
// Priority glyphs (fixed table, priorities 1 to 5):
//
//	1 (min)     💤
//	2 (low)     🔽
//	3 (default) 🔔
//	4 (high)    ❗
//	5 (urgent)  🚨
package render
