package ports

import "github.com/layer-3/remitwise/core"

// Tokenizer converts between sessions and sealed tokens
type Tokenizer interface {
	SessionToToken(session *core.Session) (string, error)
	TokenToSession(token string) (*core.Session, error)
}
