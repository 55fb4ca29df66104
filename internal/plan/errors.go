package plan

import "fmt"

// Context identifies a workout within the source document so validation
// errors can be fixed without re-reading the whole file.
type Context struct {
	Index int
	Date  string
	Name  string
}

func (c Context) String() string {
	date := c.Date
	if date == "" {
		date = "?"
	}
	name := c.Name
	if name == "" {
		name = "?"
	}
	return fmt.Sprintf("workout[%d] date=%s name=%s", c.Index, date, name)
}

// SchemaError reports a structural problem with the document: an unexpected
// top-level shape, or a workout missing or doubling up required fields.
type SchemaError struct {
	Ctx   Context
	Field string
	Msg   string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Ctx, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Ctx, e.Field, e.Msg)
}

// DurationParseError reports a duration value that is not an integer second
// count or a string with an s/m/km suffix.
type DurationParseError struct {
	Ctx   Context
	Path  string
	Value string
}

func (e *DurationParseError) Error() string {
	return fmt.Sprintf("%s: %s: invalid duration %s (want seconds, or a string like \"30s\", \"10m\", \"5km\")", e.Ctx, e.Path, e.Value)
}

// PaceRangeError reports a pace that is not an integer in [1,150].
type PaceRangeError struct {
	Ctx   Context
	Path  string
	Value string
}

func (e *PaceRangeError) Error() string {
	return fmt.Sprintf("%s: %s: invalid pace %s (want an integer percentage in [1,150])", e.Ctx, e.Path, e.Value)
}

// StructureError reports a malformed training tree: a repeat with a
// non-positive count or empty body, or a node that is neither a step nor a
// repeat.
type StructureError struct {
	Ctx  Context
	Path string
	Msg  string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Ctx, e.Path, e.Msg)
}
