package conference

import "errors"

// errConferenceExpired is returned by Enqueue once a conference has been
// expired, so Default.Enqueue has a well-defined error to return instead of
// panicking on a closed channel. The router turns any Enqueue error into a
// not-found error reply.
var errConferenceExpired = errors.New("conference: already expired")
