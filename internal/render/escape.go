package render

import "strings"

// reserved lists every character Telegram MarkdownV2 requires escaped.
var reserved = strings.NewReplacer(
	`_`, `\_`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`(`, `\(`,
	`)`, `\)`,
	`~`, `\~`,
	"`", "\\`",
	`>`, `\>`,
	`#`, `\#`,
	`+`, `\+`,
	`-`, `\-`,
	`=`, `\=`,
	`|`, `\|`,
	`{`, `\{`,
	`}`, `\}`,
	`.`, `\.`,
	`!`, `\!`,
)

// Escape prefixes every MarkdownV2 reserved character with one backslash.
// Special chars: _ * [ ] ( ) ~ ` > # + - = | { } . !
//
// Not idempotent: applying it twice double-escapes. Callers escape raw
// text exactly once.
func Escape(text string) string {
	return reserved.Replace(text)
}
