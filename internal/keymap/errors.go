package keymap

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every failure raised while compiling a keymap wraps one of these.
var (
	ErrUnknownKeycode      = errors.New("unknown keycode")
	ErrInvalidAliasArity   = errors.New("invalid alias arity")
	ErrUnknownLayer        = errors.New("unknown layer")
	ErrNameCollision       = errors.New("name collision")
	ErrOutOfRangePosition  = errors.New("position out of range")
	ErrUnresolvedExtension = errors.New("unresolved extension")
	ErrUnresolvedReference = errors.New("unresolved canonical reference")
	ErrKeyCount            = errors.New("wrong key count")
	ErrInvalidModifier     = errors.New("invalid modifier")
	ErrUnknownLayout       = errors.New("unknown layout size")
)

// Error locates a failure in the configuration so the author can fix the
// offending layer or token. Position is -1 when not applicable.
type Error struct {
	Board    string
	Layer    string
	Position int
	Token    string
	Detail   string
	Err      error
}

func (e *Error) Error() string {
	var parts []string
	if e.Board != "" {
		parts = append(parts, "board "+e.Board)
	}
	if e.Layer != "" {
		parts = append(parts, "layer "+e.Layer)
	}
	if e.Position >= 0 {
		parts = append(parts, fmt.Sprintf("position %d", e.Position))
	}
	if e.Token != "" {
		parts = append(parts, fmt.Sprintf("token %q", e.Token))
	}
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if len(parts) == 0 {
		return msg
	}
	return strings.Join(parts, ", ") + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// TokenError builds an Error for a token with no position information yet.
func TokenError(kind error, token, detail string) *Error {
	return &Error{Position: -1, Token: token, Detail: detail, Err: kind}
}

// LayerError builds an Error scoped to a layer.
func LayerError(kind error, layer, detail string) *Error {
	return &Error{Position: -1, Layer: layer, Detail: detail, Err: kind}
}

// Locate fills in missing coordinates on err when it is an *Error, wrapping
// it otherwise.
func Locate(err error, board, layer string, position int) error {
	if err == nil {
		return nil
	}
	var ke *Error
	if errors.As(err, &ke) {
		out := *ke
		if out.Board == "" {
			out.Board = board
		}
		if out.Layer == "" {
			out.Layer = layer
		}
		if out.Position < 0 {
			out.Position = position
		}
		return &out
	}
	return &Error{Board: board, Layer: layer, Position: position, Err: err}
}
