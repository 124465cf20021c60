package render

import (
	"strings"

	"ntfygram/internal/ntfy"
	"ntfygram/pkg/tgmd"
)

// Options are the display toggles applied per message. Snapshot them per
// render; never read live configuration from in here.
type Options struct {
	IncludeTopic    bool
	IncludePriority bool
}

// Message builds the MarkdownV2 text for a message event.
//
// The prefix layout is a fixed contract: topic line, tag glyphs, title,
// priority glyph, then one blank line before the body whenever a title was
// present or a non-default priority is being shown. A missing body yields
// a degenerate (possibly empty) message rather than an error.
func Message(ev ntfy.Event, opts Options) string {
	var b strings.Builder

	if opts.IncludeTopic && ev.Topic != "" {
		b.WriteString(ev.Topic)
		b.WriteString("\n")
	}

	glyphs, plainTags := TagGlyphs(ev.Tags)
	b.WriteString(glyphs)

	if ev.Title != "" {
		b.WriteString(ev.Title)
		b.WriteString(" ")
	}

	if opts.IncludePriority {
		b.WriteString(PriorityGlyph(ev.Priority))
	}

	if ev.Title != "" || (opts.IncludePriority && ev.Priority != ntfy.DefaultPriority) {
		b.WriteString("\n\n")
	}

	if ev.Markdown() {
		b.WriteString(tgmd.Convert(ev.Message))
	} else {
		b.WriteString(Escape(ev.Message))
	}

	if len(plainTags) > 0 {
		b.WriteString("\ntags: ")
		b.WriteString(strings.Join(plainTags, ","))
	}

	// Link text is escaped, the URL target is not: Telegram resolves the
	// raw URL inside the parentheses.
	if ev.Click != "" {
		b.WriteString("\n[")
		b.WriteString(Escape(ev.Click))
		b.WriteString("](")
		b.WriteString(ev.Click)
		b.WriteString(")")
	}

	return b.String()
}
