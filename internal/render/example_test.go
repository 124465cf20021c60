package render_test

import (
	"fmt"

	"ntfygram/internal/ntfy"
	"ntfygram/internal/render"
)

func ExampleEscape() {
	fmt.Println(render.Escape("v2.1 (stable)"))
	// Output: v2\.1 \(stable\)
}

func ExampleMessage() {
	ev := ntfy.Event{Event: "message", Topic: "alerts", Message: "disk usage at 95%"}
	fmt.Println(render.Message(ev, render.Options{IncludeTopic: true}))
	// Output:
	// alerts
	// disk usage at 95%
}
