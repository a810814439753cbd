package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
)

// MaxTextLength is the longest fact text accepted by the form.
const MaxTextLength = 200

// untitled is shown for facts submitted without a title.
const untitled = "Untitled Fact"

// Fact is a user-submitted short claim with vote counters.
// JSON tags follow the column names of the facts table.
type Fact struct {
	ID               valueobjects.ID `json:"id,omitempty"`
	Title            string          `json:"title"`
	Text             string          `json:"text"`
	Source           string          `json:"source"`
	Category         string          `json:"category"`
	ImageURL         string          `json:"image_url"`
	SecretKey        string          `json:"secret_key"`
	VotesInteresting int             `json:"votesInteresting"`
	VotesMindblowing int             `json:"votesMindblowing"`
	VotesFalse       int             `json:"votesFalse"`
	CreatedAt        time.Time       `json:"created_at"`
	UserID           string          `json:"user_id"`
}

// IsDisputed reports whether false votes outweigh the positive ones.
func (f Fact) IsDisputed() bool {
	return f.VotesInteresting+f.VotesMindblowing < f.VotesFalse
}

// DisplayTitle returns the title, or a placeholder when it is blank.
func (f Fact) DisplayTitle() string {
	if strings.TrimSpace(f.Title) == "" {
		return untitled
	}
	return f.Title
}

// ShortUserID returns the first six characters of the submitter id.
func (f Fact) ShortUserID() string {
	return shortID(f.UserID)
}

// Matches reports whether the case-folded term occurs in the title or text.
// term must already be lower case.
func (f Fact) Matches(term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(f.Title), term) ||
		strings.Contains(strings.ToLower(f.Text), term)
}

// HasSecret reports whether edit and delete are gated by a key.
func (f Fact) HasSecret() bool {
	return f.SecretKey != ""
}

// VoteField names one of the three vote counters.
type VoteField string

const (
	VotesInteresting VoteField = "votesInteresting"
	VotesMindblowing VoteField = "votesMindblowing"
	VotesFalse       VoteField = "votesFalse"
)

// ParseVoteField accepts the column name or the short button name
// (interesting, mindblowing, false).
func ParseVoteField(s string) (VoteField, error) {
	switch strings.TrimSpace(s) {
	case "votesInteresting", "interesting":
		return VotesInteresting, nil
	case "votesMindblowing", "mindblowing":
		return VotesMindblowing, nil
	case "votesFalse", "false":
		return VotesFalse, nil
	}
	return "", fmt.Errorf("unknown vote field %q", s)
}

// Column returns the facts table column for the counter.
func (v VoteField) Column() string {
	return string(v)
}

// Count reads the counter from f.
func (v VoteField) Count(f Fact) int {
	switch v {
	case VotesInteresting:
		return f.VotesInteresting
	case VotesMindblowing:
		return f.VotesMindblowing
	case VotesFalse:
		return f.VotesFalse
	}
	return 0
}

// Incremented returns a copy of f with the counter raised by one.
func (v VoteField) Incremented(f Fact) Fact {
	switch v {
	case VotesInteresting:
		f.VotesInteresting++
	case VotesMindblowing:
		f.VotesMindblowing++
	case VotesFalse:
		f.VotesFalse++
	}
	return f
}

func shortID(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[:6]
}
