// Package fixtures builds facts and comments for tests.
package fixtures

import (
	"time"

	"github.com/zhangshi0512/FactsHub/application/ports"
	"github.com/zhangshi0512/FactsHub/domain/core/entities"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
)

// FactBuilder helps create test facts with default values
type FactBuilder struct {
	fact entities.Fact
}

func NewFactBuilder() *FactBuilder {
	return &FactBuilder{fact: entities.Fact{
		Title:     "Test Fact",
		Text:      "Honey never spoils.",
		Source:    "https://example.com/honey",
		Category:  "science",
		UserID:    "test-user-123",
		CreatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}}
}

func (b *FactBuilder) WithID(id string) *FactBuilder {
	b.fact.ID = valueobjects.ID(id)
	return b
}

func (b *FactBuilder) WithTitle(title string) *FactBuilder {
	b.fact.Title = title
	return b
}

func (b *FactBuilder) WithText(text string) *FactBuilder {
	b.fact.Text = text
	return b
}

func (b *FactBuilder) WithSource(source string) *FactBuilder {
	b.fact.Source = source
	return b
}

func (b *FactBuilder) WithCategory(category string) *FactBuilder {
	b.fact.Category = category
	return b
}

func (b *FactBuilder) WithSecret(secret string) *FactBuilder {
	b.fact.SecretKey = secret
	return b
}

func (b *FactBuilder) WithVotes(interesting, mindblowing, falseVotes int) *FactBuilder {
	b.fact.VotesInteresting = interesting
	b.fact.VotesMindblowing = mindblowing
	b.fact.VotesFalse = falseVotes
	return b
}

func (b *FactBuilder) WithCreatedAt(t time.Time) *FactBuilder {
	b.fact.CreatedAt = t
	return b
}

func (b *FactBuilder) WithUserID(userID string) *FactBuilder {
	b.fact.UserID = userID
	return b
}

func (b *FactBuilder) Build() entities.Fact {
	return b.fact
}

// Row returns the fact as a remote store row. An unset id or created_at is
// left out so the store assigns it.
func (b *FactBuilder) Row() ports.Row {
	return toRow(b.fact, b.fact.ID, b.fact.CreatedAt)
}

// CommentBuilder helps create test comments with default values
type CommentBuilder struct {
	comment entities.Comment
}

func NewCommentBuilder() *CommentBuilder {
	return &CommentBuilder{comment: entities.Comment{
		FactID:    "1",
		Content:   "Great fact!",
		UserID:    "test-user-456",
		CreatedAt: time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
	}}
}

func (b *CommentBuilder) WithID(id string) *CommentBuilder {
	b.comment.ID = valueobjects.ID(id)
	return b
}

func (b *CommentBuilder) ForFact(id string) *CommentBuilder {
	b.comment.FactID = valueobjects.ID(id)
	return b
}

func (b *CommentBuilder) WithContent(content string) *CommentBuilder {
	b.comment.Content = content
	return b
}

func (b *CommentBuilder) WithCreatedAt(t time.Time) *CommentBuilder {
	b.comment.CreatedAt = t
	return b
}

func (b *CommentBuilder) Build() entities.Comment {
	return b.comment
}

// Row returns the comment as a remote store row.
func (b *CommentBuilder) Row() ports.Row {
	return toRow(b.comment, b.comment.ID, b.comment.CreatedAt)
}

// Rows converts facts into rows with their ids and timestamps kept.
func Rows(facts ...entities.Fact) []ports.Row {
	rows := make([]ports.Row, 0, len(facts))
	for _, f := range facts {
		rows = append(rows, toRow(f, f.ID, f.CreatedAt))
	}
	return rows
}

func toRow(v interface{}, id valueobjects.ID, createdAt time.Time) ports.Row {
	row, err := ports.EncodeRow(v)
	if err != nil {
		panic(err)
	}
	if id.IsZero() {
		delete(row, ports.ColumnID)
	}
	if createdAt.IsZero() {
		delete(row, ports.ColumnCreatedAt)
	} else {
		row[ports.ColumnCreatedAt] = createdAt
	}
	return row
}
