package pages

import "sync"

// Form is the input state of one page: raw field values and invalid marks.
type Form struct {
	mu      sync.Mutex
	fields  []string
	values  map[string]string
	invalid map[string]bool
}

func NewForm(fields ...string) *Form {
	return &Form{
		fields:  fields,
		values:  make(map[string]string, len(fields)),
		invalid: make(map[string]bool, len(fields)),
	}
}

func (f *Form) Set(field string, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[field] = value
}

func (f *Form) Value(field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.values[field]
}

func (f *Form) MarkInvalid(fields ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, field := range fields {
		f.invalid[field] = true
	}
}

func (f *Form) ClearInvalid() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.invalid = make(map[string]bool, len(f.fields))
}

func (f *Form) IsInvalid(field string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.invalid[field]
}

// InvalidFields lists marked fields in form order.
func (f *Form) InvalidFields() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	marked := []string{}
	for _, field := range f.fields {
		if f.invalid[field] {
			marked = append(marked, field)
		}
	}

	return marked
}
