package textfmt

import (
	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/value"
)

type readOpts struct {
	schema *sdfdata.Schema
}

type ReadOption func(*readOpts)

// ReadSchema sets the schema, and with it the value registry, used to
// decode fields.
func ReadSchema(s *sdfdata.Schema) ReadOption {
	return func(o *readOpts) { o.schema = s }
}

type writeOpts struct {
	schema *sdfdata.Schema
	color  func(ColorAttr, string) string
	indent int
}

type WriteOption func(*writeOpts)

func WriteSchema(s *sdfdata.Schema) WriteOption {
	return func(o *writeOpts) { o.schema = s }
}

func WriteColors(c *Colors) WriteOption {
	return func(o *writeOpts) { o.color = c.Color }
}

// WriteIndent sets the number of spaces per nesting level.
func WriteIndent(n int) WriteOption {
	return func(o *writeOpts) { o.indent = n }
}

func defaultSchema(s *sdfdata.Schema) *sdfdata.Schema {
	if s != nil {
		return s
	}
	return sdfdata.NewSchema(value.NewRegistry())
}
