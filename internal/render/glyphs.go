package render

import "strings"

// tagGlyphs maps ntfy emoji shortcodes to their glyph. Tags not in this
// table are appended to the message as plain text instead.
var tagGlyphs = map[string]string{
	"+1":                         "👍",
	"-1":                         "👎",
	"100":                        "💯",
	"bell":                       "🔔",
	"bomb":                       "💣",
	"boom":                       "💥",
	"bug":                        "🐛",
	"bulb":                       "💡",
	"calendar":                   "📅",
	"cd":                         "💿",
	"chart_with_downwards_trend": "📉",
	"chart_with_upwards_trend":   "📈",
	"checkered_flag":             "🏁",
	"computer":                   "💻",
	"construction":               "🚧",
	"dollar":                     "💵",
	"door":                       "🚪",
	"electric_plug":              "🔌",
	"envelope":                   "✉️",
	"facepalm":                   "🤦",
	"fire":                       "🔥",
	"floppy_disk":                "💾",
	"gear":                       "⚙️",
	"ghost":                      "👻",
	"gift":                       "🎁",
	"green_circle":               "🟢",
	"hammer":                     "🔨",
	"heavy_check_mark":           "✔️",
	"hourglass":                  "⌛",
	"house":                      "🏠",
	"key":                        "🔑",
	"lock":                       "🔒",
	"loudspeaker":                "📢",
	"mag":                        "🔍",
	"moneybag":                   "💰",
	"no_entry":                   "⛔",
	"no_entry_sign":              "🚫",
	"package":                    "📦",
	"page_facing_up":             "📄",
	"partying_face":              "🥳",
	"red_circle":                 "🔴",
	"robot":                      "🤖",
	"rocket":                     "🚀",
	"rotating_light":             "🚨",
	"satellite":                  "📡",
	"skull":                      "💀",
	"snowflake":                  "❄️",
	"tada":                       "🎉",
	"thermometer":                "🌡️",
	"triangular_flag_on_post":    "🚩",
	"warning":                    "🚨",
	"white_check_mark":           "✅",
	"wrench":                     "🔧",
	"x":                          "❌",
	"yellow_circle":              "🟡",
	"zap":                        "⚡",
}

// priorityGlyphs indexes priorities 1..5; see the package doc for the table.
var priorityGlyphs = [5]string{"💤", "🔽", "🔔", "❗", "🚨"}

// TagGlyphs partitions tags into a glyph prefix and the tags that have no
// glyph. Mapped tags contribute their glyph in order, concatenated without
// separators; if any matched, exactly one trailing space is appended.
// Remaining tags keep their original order.
func TagGlyphs(tags []string) (prefix string, remaining []string) {
	var b strings.Builder
	remaining = make([]string, 0, len(tags))
	for _, tag := range tags {
		if g, ok := tagGlyphs[tag]; ok {
			b.WriteString(g)
		} else {
			remaining = append(remaining, tag)
		}
	}
	if b.Len() > 0 {
		b.WriteString(" ")
	}
	return b.String(), remaining
}

// PriorityGlyph maps priorities 1..5 to their glyph.
// Out-of-range values render as empty, never fail.
func PriorityGlyph(p int) string {
	if p < 1 || p > len(priorityGlyphs) {
		return ""
	}
	return priorityGlyphs[p-1]
}
