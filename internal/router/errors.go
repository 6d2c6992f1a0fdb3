package router

// Kind is the internal error taxonomy the router converts into a
// dialect-specific protocol reply at the boundary (spec.md §7).
type Kind int

const (
	KindNotFound Kind = iota
	KindAlreadyExists
	KindGracefulShutdown
	KindInvalidName
	KindBadRequest
)

// Error is an internal routing failure, not yet encoded for a dialect.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func errNotFound(msg string) *Error         { return &Error{Kind: KindNotFound, Msg: msg} }
func errAlreadyExists(msg string) *Error    { return &Error{Kind: KindAlreadyExists, Msg: msg} }
func errGracefulShutdown(msg string) *Error { return &Error{Kind: KindGracefulShutdown, Msg: msg} }
func errInvalidName(msg string) *Error      { return &Error{Kind: KindInvalidName, Msg: msg} }
func errBadRequest(msg string) *Error       { return &Error{Kind: KindBadRequest, Msg: msg} }
