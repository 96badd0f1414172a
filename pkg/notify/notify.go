package notify

import (
	"sync"

	"github.com/friendsofgo/errors"
)

type Category int

const (
	None Category = iota
	Info
	Warning
	Danger
	Success
)

// Categories lists every category that owns a region, in display order.
var Categories = []Category{Info, Warning, Danger, Success}

var ErrUnknownCategory = errors.New("unknown notification category")

func (c Category) String() string {
	switch c {
	case None:
		return "none"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Danger:
		return "danger"
	case Success:
		return "success"
	default:
		return "unknown"
	}
}

func (c Category) valid() bool {
	return c >= None && c <= Success
}

type Region struct {
	Title   string
	Body    string
	Visible bool
}

// ViewState holds one message region per category. It is safe to read while
// a Presenter writes to it.
type ViewState struct {
	mu      sync.RWMutex
	regions map[Category]*Region
}

func NewViewState() *ViewState {
	v := &ViewState{regions: make(map[Category]*Region, len(Categories))}
	for _, c := range Categories {
		v.regions[c] = &Region{}
	}

	return v
}

// Region returns a copy of the region for c.
func (v *ViewState) Region(c Category) (Region, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	r, ok := v.regions[c]
	if !ok {
		return Region{}, false
	}

	return *r, true
}

// Visible lists the categories whose region is shown.
func (v *ViewState) Visible() []Category {
	v.mu.RLock()
	defer v.mu.RUnlock()

	shown := []Category{}
	for _, c := range Categories {
		if v.regions[c].Visible {
			shown = append(shown, c)
		}
	}

	return shown
}

// reveal hides every region, then fills and shows the one for c.
func (v *ViewState) reveal(c Category, title string, body string) Region {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.hideAllLocked()
	region := v.regions[c]
	region.Title = title
	region.Body = body
	region.Visible = true

	return *region
}

func (v *ViewState) hideAll() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.hideAllLocked()
}

func (v *ViewState) hideAllLocked() {
	for _, r := range v.regions {
		r.Visible = false
	}
}

// Renderer is told about every state transition, in order. Render runs under the
// Presenter's lock and must not call back into it.
type Renderer interface {
	Render(c Category, region Region)
}

// Presenter is the only writer of a ViewState. At most one region is visible.
type Presenter struct {
	mu       sync.Mutex
	view     *ViewState
	current  Category
	renderer Renderer
}

// NewPresenter wraps view. A nil renderer is allowed.
func NewPresenter(view *ViewState, renderer Renderer) *Presenter {
	if view == nil {
		view = NewViewState()
	}

	p := &Presenter{view: view, renderer: renderer}
	p.view.hideAll()

	return p
}

func (p *Presenter) Show(c Category, title string, body string) error {
	if !c.valid() {
		return errors.Wrapf(ErrUnknownCategory, "category %d", int(c))
	}

	if c == None {
		p.Clear()
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = c
	p.render(c, p.view.reveal(c, title, body))

	return nil
}

func (p *Presenter) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.view.hideAll()
	p.current = None
	p.render(None, Region{})
}

func (p *Presenter) Current() Category {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.current
}

// Snapshot returns the visible category and its region.
func (p *Presenter) Snapshot() (Category, Region) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == None {
		return None, Region{}
	}

	region, _ := p.view.Region(p.current)
	return p.current, region
}

// Visible lists the shown categories; never more than one.
func (p *Presenter) Visible() []Category {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.view.Visible()
}

func (p *Presenter) render(c Category, r Region) {
	if p.renderer != nil {
		p.renderer.Render(c, r)
	}
}
