package telnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestColorize(t *testing.T) {
	assert.Equal(t, "\033[31mfainted\033[0m", Colorize(Red, "fainted"))
}

func TestColorf(t *testing.T) {
	assert.Equal(t, "\033[32mHP 42/120\033[0m", Colorf(Green, "HP %d/%d", 42, 120))
}

func TestStripANSI(t *testing.T) {
	input := "\033[31mred\033[0m normal \033[1m\033[32mbold green\033[0m" + ClearScreen
	assert.Equal(t, "red normal bold green", StripANSI(input))
	assert.Equal(t, "plain text", StripANSI("plain text"))
}

func TestHPColor(t *testing.T) {
	assert.Equal(t, Green, HPColor(100, 100))
	assert.Equal(t, Green, HPColor(51, 100))
	assert.Equal(t, Yellow, HPColor(50, 100))
	assert.Equal(t, Yellow, HPColor(21, 100))
	assert.Equal(t, Red, HPColor(20, 100))
	assert.Equal(t, Red, HPColor(0, 100))
	assert.Equal(t, Red, HPColor(5, 0))
}

func TestHPBar(t *testing.T) {
	assert.Equal(t, "[          ]", StripANSI(HPBar(0, 100, 10)))
	assert.Equal(t, "[==========]", StripANSI(HPBar(100, 100, 10)))
	assert.Equal(t, "[=====     ]", StripANSI(HPBar(50, 100, 10)))
	assert.Equal(t, "[=         ]", StripANSI(HPBar(1, 100, 10)), "any remaining HP shows one cell")
}

func TestPropertyHPBarWidth(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		max := rapid.IntRange(0, 500).Draw(t, "max")
		current := rapid.IntRange(0, max).Draw(t, "current")
		width := rapid.IntRange(1, 40).Draw(t, "width")
		assert.Len(t, StripANSI(HPBar(current, max, width)), width+2)
	})
}

func TestPropertyColorizeStripRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[a-zA-Z0-9 !?.,]{0,40}`).Draw(t, "text")
		color := rapid.SampledFrom([]string{Red, Green, Yellow, Cyan, Bold, BrightWhite}).Draw(t, "color")
		assert.Equal(t, text, StripANSI(Colorize(color, text)))
	})
}
