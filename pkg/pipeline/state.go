package pipeline

import "context"

// Backend holds the connection settings for a remote backend.
// Exactly one authentication strategy applies: username/password/database
// for credential login, or AccessToken for token-based backends.
type Backend struct {
	Endpoint    string `yaml:"endpoint" mapstructure:"endpoint"`
	Database    string `yaml:"database" mapstructure:"database"`
	Username    string `yaml:"username" mapstructure:"username"`
	Password    string `yaml:"password" mapstructure:"password"`
	AccessToken string `yaml:"access_token" mapstructure:"access_token"`
}

// UsesToken reports whether the token strategy should be used for this backend.
func (b Backend) UsesToken() bool {
	return b.AccessToken != ""
}

// State is the record threaded through a pipeline execution.
//
// Data holds the most recent fetched payload. References is the append-only
// history of prior Data values, kept for audit and replay. State values are
// merged, never mutated: every transition goes through WithData, which
// returns a fresh copy.
type State struct {
	Backend    Backend `json:"backend"`
	Data       any     `json:"data"`
	References []any   `json:"references"`
}

// NewState creates a fresh state for one pipeline execution.
func NewState(backend Backend) State {
	return State{Backend: backend}
}

// WithData returns a copy of s with Data replaced by payload and the
// previous Data value appended to References. The receiver is not touched;
// the references slice is copied so later transitions cannot alias it.
func (s State) WithData(payload any) State {
	refs := make([]any, 0, len(s.References)+1)
	refs = append(refs, s.References...)
	refs = append(refs, s.Data)

	next := s
	next.Data = payload
	next.References = refs
	return next
}

// Continuation is a caller-supplied hook invoked with the computed next
// state. Its return value supersedes the computed state; this layer does
// not validate it.
type Continuation func(next State) State

// Operation is one externally invocable pipeline step. Operations compose
// sequentially: each receives the state produced by its predecessor.
type Operation func(ctx context.Context, st State) (State, error)
