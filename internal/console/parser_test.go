package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want ParseResult
	}{
		{"", ParseResult{}},
		{"   ", ParseResult{}},
		{"LIST", ParseResult{Command: "list"}},
		{"hp goblin -3", ParseResult{Command: "hp", Args: []string{"goblin", "-3"}, RawArgs: "goblin -3"}},
		{`add monster "Goblin Boss" 21 17`, ParseResult{
			Command: "add",
			Args:    []string{"monster", "Goblin Boss", "21", "17"},
			RawArgs: `monster "Goblin Boss" 21 17`,
		}},
		{"search   young   red", ParseResult{Command: "search", Args: []string{"young", "red"}, RawArgs: "young   red"}},
		{"add pc \"Ser Brand", ParseResult{Command: "add", Args: []string{"pc", "Ser Brand"}, RawArgs: "pc \"Ser Brand"}},
		{"group \"\" a", ParseResult{Command: "group", Args: []string{"", "a"}, RawArgs: "\"\" a"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.line))
		})
	}
}

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "Goblin", StripANSI(Colorize(BrightYellow, "Goblin")))
	assert.Equal(t, "HP 3", StripANSI(Colorf(Red, "HP %d", 3)))
	assert.Equal(t, "plain", StripANSI("plain"))
}

func TestPalette(t *testing.T) {
	assert.Equal(t, "x", palette(false).paint(Red, "x"))
	assert.Equal(t, Red+"x"+Reset, palette(true).paint(Red, "x"))
}
