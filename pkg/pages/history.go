package pages

import (
	"net/url"
	"sync"
)

// History is a Navigator that resolves targets against the current location
// and remembers every visit.
type History struct {
	mu     sync.Mutex
	visits []*url.URL
}

func NewHistory(start *url.URL) *History {
	u := *start
	return &History{visits: []*url.URL{&u}}
}

// Redirect moves to target resolved against the current location. A target
// that does not parse leaves the location unchanged.
func (h *History) Redirect(target string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ref, err := url.Parse(target)
	if err != nil {
		return
	}

	h.visits = append(h.visits, h.visits[len(h.visits)-1].ResolveReference(ref))
}

func (h *History) Reload() {
	h.mu.Lock()
	defer h.mu.Unlock()

	u := *h.visits[len(h.visits)-1]
	h.visits = append(h.visits, &u)
}

func (h *History) Current() *url.URL {
	h.mu.Lock()
	defer h.mu.Unlock()

	u := *h.visits[len(h.visits)-1]
	return &u
}

// Navigations counts redirects and reloads since the start page.
func (h *History) Navigations() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.visits) - 1
}
