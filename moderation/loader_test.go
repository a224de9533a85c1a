package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCensoredWords(t *testing.T) {
	req := require.New(t)

	data, err := LoadCensoredWords()

	req.NoError(err)
	req.Contains(data.Languages, "en")
	req.Contains(data.Languages, "fr")
	req.Contains(data.Words, "moron")
	// "idiot" appears in both dictionaries but is loaded once
	count := 0
	for _, w := range data.Words {
		if w == "idiot" {
			count++
		}
	}
	req.Equal(1, count)
}
