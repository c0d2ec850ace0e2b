package textfmt

import (
	"strings"

	"github.com/fatih/color"
)

type ColorAttr int

const (
	HeaderColor ColorAttr = iota
	KeywordColor
	TypeColor
	NameColor
	KeyColor
	ValueColor
	PathColor
	SepColor
)

type Colors struct {
	Default func(string, ...any) string
	Map     map[ColorAttr]func(string, ...any) string
}

func NewColors() *Colors {
	colors := &Colors{
		Default: colorDefault,
		Map: map[ColorAttr]func(string, ...any) string{
			HeaderColor:  color.BlueString,
			KeywordColor: color.RGB(168, 0, 196).SprintfFunc(),
			TypeColor:    color.RGB(128, 216, 236).SprintfFunc(),
			NameColor:    color.RGB(196, 96, 16).SprintfFunc(),
			KeyColor:     color.RGB(128, 168, 196).SprintfFunc(),
			ValueColor:   color.RGB(8, 196, 16).SprintfFunc(),
			PathColor:    color.RGB(198, 198, 46).SprintfFunc(),
			SepColor:     color.RGB(255, 0, 196).SprintfFunc(),
		},
	}
	for k, f := range colors.Map {
		colors.Map[k] = func(v string, _ ...any) string {
			return f(strings.ReplaceAll(v, "%", "%%"))
		}
	}
	return colors
}

func colorDefault(v string, _ ...any) string { return v }

func (c *Colors) Color(a ColorAttr, s string) string {
	f := c.Map[a]
	if f == nil {
		return c.Default(s)
	}
	return f(s)
}
