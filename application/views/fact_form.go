package views

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/zhangshi0512/FactsHub/application/commands"
	"github.com/zhangshi0512/FactsHub/domain/core/entities"
)

// FactForm holds the values of the create or edit form between submissions.
type FactForm struct {
	mu     sync.Mutex
	open   bool
	fields commands.FactFields
}

// Open shows the form.
func (f *FactForm) Open() {
	f.mu.Lock()
	f.open = true
	f.mu.Unlock()
}

// Close hides the form and keeps its values.
func (f *FactForm) Close() {
	f.mu.Lock()
	f.open = false
	f.mu.Unlock()
}

// Toggle flips the form between open and closed and returns the new state.
func (f *FactForm) Toggle() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = !f.open
	return f.open
}

// IsOpen reports whether the form is shown.
func (f *FactForm) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// Fields returns the current values.
func (f *FactForm) Fields() commands.FactFields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// SetFields replaces every value.
func (f *FactForm) SetFields(fields commands.FactFields) {
	f.mu.Lock()
	f.fields = fields
	f.mu.Unlock()
}

// Set assigns one field by its form name.
func (f *FactForm) Set(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "title":
		f.fields.Title = value
	case "text":
		f.fields.Text = value
	case "source":
		f.fields.Source = value
	case "category":
		f.fields.Category = value
	case "image", "image_url", "imageurl":
		f.fields.ImageURL = value
	case "secret", "secret_key", "secretkey":
		f.fields.SecretKey = value
	default:
		return fmt.Errorf("unknown form field %q", name)
	}
	return nil
}

// Reset clears every value.
func (f *FactForm) Reset() {
	f.mu.Lock()
	f.fields = commands.FactFields{}
	f.mu.Unlock()
}

// Remaining is the number of characters still allowed in the text field.
// It goes negative once the limit is exceeded.
func (f *FactForm) Remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return entities.MaxTextLength - utf8.RuneCountInString(f.fields.Text)
}
