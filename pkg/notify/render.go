package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// TextRenderer prints each shown notification as one line. Clears print nothing.
type TextRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTextRenderer(out io.Writer) *TextRenderer {
	return &TextRenderer{out: out}
}

func (r *TextRenderer) Render(c Category, region Region) {
	if c == None {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "[%s] %s %s\n", strings.ToUpper(c.String()), region.Title, region.Body)
}

// Transition is one recorded presenter change.
type Transition struct {
	Category Category
	Title    string
	Body     string
}

// Recorder keeps every transition in order.
type Recorder struct {
	mu          sync.Mutex
	Transitions []Transition
}

func (r *Recorder) Render(c Category, region Region) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Transitions = append(r.Transitions, Transition{Category: c, Title: region.Title, Body: region.Body})
}

// Shown returns the recorded non-clear transitions.
func (r *Recorder) Shown() []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()

	shown := []Transition{}
	for _, t := range r.Transitions {
		if t.Category != None {
			shown = append(shown, t)
		}
	}

	return shown
}
