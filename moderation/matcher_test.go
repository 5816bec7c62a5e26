package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeywordMatcher_Denylist(t *testing.T) {
	req := require.New(t)
	matcher, err := NewKeywordMatcher(DenylistKeywords)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		contains bool
	}{
		{"Plain keyword", "清华怎么样", true},
		{"Keyword with noise", "清 华 和 川农比呢", true},
		{"Longer keyword", "西南交大好吗", true},
		{"Unrelated question", "川农的图书馆几点开门", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req.Equal(tt.contains, len(matcher.Matches(tt.input)) > 0)
		})
	}
}

func TestKeywordMatcher_Matches(t *testing.T) {
	req := require.New(t)
	matcher, err := NewKeywordMatcher([]string{"Badger", "snake", "  "})
	req.NoError(err)

	req.Equal([]string{"badger", "snake"}, matcher.Matches("The BADGER met a snake"))
	req.Empty(matcher.Matches("nothing here"))
}

func TestKeywordMatcher_EmptySet(t *testing.T) {
	req := require.New(t)
	matcher, err := NewKeywordMatcher(nil)
	req.NoError(err)
	req.Nil(matcher.Matches("清华"))
}
