package dynamix

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aydabd/http-dynamix/internal/segment"
)

// SegmentFormat selects the naming convention applied to literal path
// segments before they are joined into a URL path.
type SegmentFormat string

// Supported naming conventions.
const (
	FormatCamel     SegmentFormat = "camel"
	FormatPascal    SegmentFormat = "pascal"
	FormatSnake     SegmentFormat = "snake"
	FormatKebab     SegmentFormat = "kebab"
	FormatConstant  SegmentFormat = "constant"
	FormatFlat      SegmentFormat = "flat"
	FormatUnchanged SegmentFormat = "unchanged"
)

// Valid reports whether the format is a supported convention.
func (f SegmentFormat) Valid() bool {
	return segment.Format(f).Valid()
}

// Segment is one element of an accumulated path: a literal name, or a
// parameter whose captured value is stringified and encoded at render time.
type Segment struct {
	Name  string
	Value any
	// format overrides the chain convention for this segment only.
	format SegmentFormat
}

// IsParam reports whether the segment carries a captured parameter value.
func (s Segment) IsParam() bool { return s.Value != nil }

// Path is an immutable accumulator for an in-progress URL path. Every
// accumulation returns a new Path sharing the client configuration; prior
// values stay valid and may be reused to issue sibling requests concurrently.
//
// Accumulation errors are checked eagerly and poison the chain: the first
// invalid access is remembered and surfaces from Render and from any terminal
// call, so a corrupt path can never reach the transport.
type Path struct {
	client   *Client
	segments []Segment
	format   SegmentFormat
	err      error
}

// Child appends one literal segment per name, in order.
func (p *Path) Child(names ...string) *Path {
	next := p
	for _, name := range names {
		next = next.child(name)
	}
	return next
}

func (p *Path) child(name string) *Path {
	if p.err != nil {
		return p
	}
	if name == "" {
		return p.fail(&ClientError{
			Type:    ErrorTypeInvalidSegment,
			Message: "segment name is empty",
		})
	}
	return p.with(Segment{Name: name})
}

// Param appends a parameterized segment. The value is captured as-is and
// stringified at render time, keeping value-to-string policy in one place.
func (p *Path) Param(name string, value any) *Path {
	if p.err != nil {
		return p
	}
	if name == "" {
		return p.fail(&ClientError{
			Type:    ErrorTypeInvalidSegment,
			Message: "parameter segment name is empty",
		})
	}
	if value == nil {
		return p.fail(&ClientError{
			Type:    ErrorTypeInvalidSegment,
			Message: fmt.Sprintf("parameter %q has nil value", name),
		})
	}
	return p.with(Segment{Name: name, Value: value})
}

// Format returns a chain with a different naming convention; segments already
// accumulated are re-rendered under the new convention too.
func (p *Path) Format(f SegmentFormat) *Path {
	next := p.clone()
	next.format = f
	return next
}

// FormatLast overrides the convention for the most recently added segment
// only, leaving the rest of the chain on the chain convention.
func (p *Path) FormatLast(f SegmentFormat) *Path {
	if p.err != nil {
		return p
	}
	if len(p.segments) == 0 {
		return p.fail(&ClientError{
			Type:    ErrorTypeUnsupportedAccess,
			Message: "cannot override format on an empty chain",
		})
	}
	next := p.clone()
	last := next.segments[len(next.segments)-1]
	last.format = f
	next.segments = append(next.segments[:len(next.segments)-1:len(next.segments)-1], last)
	return next
}

// Render joins the accumulated segments with "/", applying the naming
// convention to literal segments and stringifying parameter values, each
// percent-encoded independently. Render never mutates and may be called
// repeatedly for diagnostics.
func (p *Path) Render() (string, error) {
	if p.err != nil {
		return "", p.err
	}

	formatter := segment.Formatter{
		Format:     segment.Format(p.convention()),
		KnownPaths: p.client.knownPaths,
	}

	rendered := make([]string, 0, len(p.segments))
	for _, s := range p.segments {
		if s.IsParam() {
			rendered = append(rendered, url.PathEscape(fmt.Sprint(s.Value)))
			continue
		}
		format := segment.Format(p.convention())
		if s.format != "" {
			format = segment.Format(s.format)
		}
		name, err := formatter.TransformAs(s.Name, format)
		if err != nil {
			return "", &ClientError{
				Type:    ErrorTypeInvalidSegment,
				Message: fmt.Sprintf("cannot format segment %q", s.Name),
				Cause:   err,
			}
		}
		rendered = append(rendered, url.PathEscape(name))
	}
	return strings.Join(rendered, "/"), nil
}

// String renders the path for diagnostics, masking render errors.
func (p *Path) String() string {
	s, err := p.Render()
	if err != nil {
		return "<invalid path>"
	}
	return s
}

// Err returns the first accumulation error, if any.
func (p *Path) Err() error { return p.err }

// Len returns the number of accumulated segments.
func (p *Path) Len() int { return len(p.segments) }

// Equal reports path equality: two accumulators are equal iff their rendered
// forms are equal. Equality is diagnostic only; it is never used for caching.
func (p *Path) Equal(other *Path) bool {
	if other == nil {
		return false
	}
	a, errA := p.Render()
	b, errB := other.Render()
	if errA != nil || errB != nil {
		return false
	}
	return a == b
}

// convention resolves the chain's effective naming convention.
func (p *Path) convention() SegmentFormat {
	if p.format != "" {
		return p.format
	}
	return p.client.format
}

// with returns a new Path with one more segment. The full-slice expression
// keeps the old backing array from being shared for further appends.
func (p *Path) with(s Segment) *Path {
	next := p.clone()
	next.segments = append(p.segments[:len(p.segments):len(p.segments)], s)
	return next
}

func (p *Path) clone() *Path {
	return &Path{
		client:   p.client,
		segments: p.segments,
		format:   p.format,
		err:      p.err,
	}
}

func (p *Path) fail(err error) *Path {
	next := p.clone()
	next.err = err
	return next
}
