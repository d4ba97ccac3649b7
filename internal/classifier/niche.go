package classifier

import "github.com/kiranshivaraju/hypecycle/pkg/models"

const (
	nicheMentions30d   = 50
	nicheMentionsTotal = 100
)

// IsNiche reports whether the discussion signal is too sparse to trust.
// Without a social result there is nothing to judge, so it returns false.
func IsNiche(data models.CollectorData) bool {
	s := data.Social
	if s == nil {
		return false
	}
	return s.Mentions30d < nicheMentions30d || s.MentionsTotal < nicheMentionsTotal
}
