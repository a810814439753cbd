package commands

import (
	"strings"

	"github.com/zhangshi0512/FactsHub/application/ports"
	"github.com/zhangshi0512/FactsHub/domain/core/entities"
	"github.com/zhangshi0512/FactsHub/pkg/validation"
)

// FactFields carries the form values for creating or editing a fact.
type FactFields struct {
	Title     string `json:"title" validate:"max=200"`
	Text      string `json:"text" validate:"required,max=200"`
	Source    string `json:"source" validate:"required,http_url"`
	Category  string `json:"category" validate:"required,category"`
	ImageURL  string `json:"image_url"`
	SecretKey string `json:"secret_key"`
}

// FieldsFromFact pre-fills a form from an existing fact.
func FieldsFromFact(f entities.Fact) FactFields {
	return FactFields{
		Title:     f.Title,
		Text:      f.Text,
		Source:    f.Source,
		Category:  f.Category,
		ImageURL:  f.ImageURL,
		SecretKey: f.SecretKey,
	}
}

// Validate checks the fields before any remote call is made.
func (f FactFields) Validate(v *validation.Validator) error {
	return v.Struct(f)
}

// Row returns the column values written on insert or update.
func (f FactFields) Row() ports.Row {
	return ports.Row{
		"title":      strings.TrimSpace(f.Title),
		"text":       f.Text,
		"source":     strings.TrimSpace(f.Source),
		"category":   f.Category,
		"image_url":  strings.TrimSpace(f.ImageURL),
		"secret_key": strings.TrimSpace(f.SecretKey),
	}
}

// SubmitCommentCommand adds a comment to a fact.
type SubmitCommentCommand struct {
	FactID  string `json:"facts_id" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// Normalize trims the content so a blank comment fails the required check.
func (c SubmitCommentCommand) Normalize() SubmitCommentCommand {
	c.Content = strings.TrimSpace(c.Content)
	return c
}

// Validate checks the command before the optimistic entry is created.
func (c SubmitCommentCommand) Validate(v *validation.Validator) error {
	return v.Struct(c.Normalize())
}
