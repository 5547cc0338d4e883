package dynamix

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// HTTP verbs recognized as terminal calls.
const (
	MethodGet     = http.MethodGet
	MethodPost    = http.MethodPost
	MethodPut     = http.MethodPut
	MethodPatch   = http.MethodPatch
	MethodDelete  = http.MethodDelete
	MethodHead    = http.MethodHead
	MethodOptions = http.MethodOptions
	MethodTrace   = http.MethodTrace
)

var terminalVerbs = map[string]string{
	"get":     MethodGet,
	"post":    MethodPost,
	"put":     MethodPut,
	"patch":   MethodPatch,
	"delete":  MethodDelete,
	"head":    MethodHead,
	"options": MethodOptions,
	"trace":   MethodTrace,
}

// StepKind tags the outcome of resolving one access against a chain.
type StepKind int

const (
	// StepSegment extends the chain with a literal segment.
	StepSegment StepKind = iota
	// StepParam extends the chain with a parameterized segment.
	StepParam
	// StepTerminal ends the chain with a pending HTTP call.
	StepTerminal
)

// String returns the step kind name.
func (k StepKind) String() string {
	switch k {
	case StepSegment:
		return "segment"
	case StepParam:
		return "parameter"
	case StepTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Step is the tagged result of Resolve: either a grown Path or a PendingCall.
type Step struct {
	Kind StepKind
	Path *Path
	Call *PendingCall
}

// PendingCall is a terminal call that has captured its method and per-call
// options but has not dispatched yet. It can be executed in blocking mode
// (Do) or suspendable mode (Start).
type PendingCall struct {
	path   *Path
	Method string
	opts   []RequestOption
}

// Do dispatches the call, blocking until the response or a terminal failure.
func (pc *PendingCall) Do(ctx context.Context) (*Response, error) {
	return pc.path.Request(ctx, pc.Method, pc.opts...)
}

// Start dispatches the call in suspendable mode.
func (pc *PendingCall) Start(ctx context.Context) *Call {
	return pc.path.Async(ctx, pc.Method, pc.opts...)
}

// Resolve implements the capability-dispatch protocol: one access name plus
// its arguments resolves to the next step of the chain. The decision is made
// eagerly with a single rule per access:
//
//   - a recognized verb name with only RequestOption arguments ends the chain;
//   - any other name with no arguments is a literal segment;
//   - any other name with exactly one value is a parameterized segment.
//
// Everything else is a grammar violation and fails with an
// UnsupportedAccess error immediately, never at dispatch time.
func (p *Path) Resolve(name string, args ...any) (Step, error) {
	if p.err != nil {
		return Step{}, p.err
	}

	if method, ok := terminalVerbs[strings.ToLower(name)]; ok {
		opts := make([]RequestOption, 0, len(args))
		for _, a := range args {
			opt, ok := a.(RequestOption)
			if !ok {
				return Step{}, &ClientError{
					Type:    ErrorTypeUnsupportedAccess,
					Message: fmt.Sprintf("verb %q takes request options, got positional %T", name, a),
				}
			}
			opts = append(opts, opt)
		}
		if len(p.segments) == 0 {
			return Step{}, &ClientError{
				Type:    ErrorTypeUnsupportedAccess,
				Message: fmt.Sprintf("terminal %q on an empty chain", name),
			}
		}
		return Step{
			Kind: StepTerminal,
			Call: &PendingCall{path: p, Method: method, opts: opts},
		}, nil
	}

	switch len(args) {
	case 0:
		next := p.Child(name)
		if next.err != nil {
			return Step{}, next.err
		}
		return Step{Kind: StepSegment, Path: next}, nil
	case 1:
		next := p.Param(name, args[0])
		if next.err != nil {
			return Step{}, next.err
		}
		return Step{Kind: StepParam, Path: next}, nil
	default:
		return Step{}, &ClientError{
			Type:    ErrorTypeUnsupportedAccess,
			Message: fmt.Sprintf("segment %q takes at most one value, got %d", name, len(args)),
		}
	}
}
