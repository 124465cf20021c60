package tgmd

import "testing"

func TestConvert(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text escapes", in: "v1.2 done!", want: `v1\.2 done\!`},
		{name: "single star bold kept", in: "*bold* move.", want: `*bold* move\.`},
		{name: "double star collapses", in: "**bold** move.", want: `*bold* move\.`},
		{name: "single underscore italic kept", in: "_it_ now", want: "_it_ now"},
		{name: "double underscore kept", in: "__under__ x", want: "__under__ x"},
		{name: "strikethrough collapses", in: "~~gone~~.", want: `~gone~\.`},
		{name: "inline code verbatim", in: "run `rm -rf /tmp` now!", want: "run `rm -rf /tmp` now\\!"},
		{name: "lone star escapes", in: "2*3", want: `2\*3`},
		{name: "link text escaped url raw", in: "[x.y](https://x.test)", want: `[x\.y](https://x.test)`},
		{name: "heading becomes bold", in: "# Deploy done!", want: `*Deploy done\!*`},
		{name: "deep heading", in: "### Notes.", want: `*Notes\.*`},
		{name: "empty bold pair escapes", in: "****", want: `\*\*\*\*`},
		{name: "unpaired double star escapes", in: "**wip", want: `\*\*wip`},
		{name: "empty string", in: "", want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Convert(tt.in); got != tt.want {
				t.Fatalf("Convert(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestConvertFencedBlock(t *testing.T) {
	t.Parallel()
	in := "before.\n```\nraw *stuff* #1\n```\nafter."
	want := "before\\.\n```\nraw *stuff* #1\n```\nafter\\."
	if got := Convert(in); got != want {
		t.Fatalf("Convert(%q) = %q, want %q", in, got, want)
	}
}

func TestConvertMultilineMixed(t *testing.T) {
	t.Parallel()
	in := "# Status\nAll **good**, see [run](https://ci.test/1)."
	want := "*Status*\nAll *good*, see [run](https://ci.test/1)\\."
	if got := Convert(in); got != want {
		t.Fatalf("Convert(%q) = %q, want %q", in, got, want)
	}
}
