package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParse_Empty(t *testing.T) {
	result := Parse("   ")
	assert.Equal(t, "", result.Command)
	assert.Nil(t, result.Args)
}

func TestParse_SingleWord(t *testing.T) {
	result := Parse("team")
	assert.Equal(t, "team", result.Command)
	assert.Nil(t, result.Args)
	assert.Equal(t, "", result.RawArgs)
}

func TestParse_Lowercase(t *testing.T) {
	assert.Equal(t, "attack", Parse("ATTACK Tackle").Command)
}

func TestParse_WithArgs(t *testing.T) {
	result := Parse("  learn   sproutle  vine whip ")
	assert.Equal(t, "learn", result.Command)
	assert.Equal(t, []string{"sproutle", "vine", "whip"}, result.Args)
	assert.Equal(t, "sproutle  vine whip", result.RawArgs)
}

func TestParseResult_Tail(t *testing.T) {
	result := Parse("attack skull bash")
	assert.Equal(t, "skull bash", result.Tail(0))
	assert.Equal(t, "bash", result.Tail(1))
	assert.Equal(t, "", result.Tail(2))
	assert.Equal(t, "", Parse("back").Tail(0))
}

func TestPropertyParseAlwaysLowercasesCommand(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.StringMatching(`[A-Za-z]{1,20}`).Draw(t, "word")
		result := Parse(word)
		assert.Equal(t, strings.ToLower(word), result.Command)
	})
}

func TestPropertyParseTailRejoinsArgs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 1, 6).Draw(t, "words")
		result := Parse("cmd " + strings.Join(words, "  "))
		assert.Equal(t, strings.Join(words, " "), result.Tail(0))
	})
}
