package keymap

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// CoreKeys is the size of the canonical 36-key core every layer is authored against.
const CoreKeys = 36

// Token is a single key slot: either a key expression or a reference into the
// canonical core by index. References only appear inside full layouts.
type Token struct {
	Key   string
	Ref   int
	IsRef bool
}

// Key returns a key-expression token.
func Key(expr string) Token { return Token{Key: expr} }

// Ref returns a canonical-position reference token.
func Ref(index int) Token { return Token{Ref: index, IsRef: true} }

func (t Token) String() string {
	if t.IsRef {
		return fmt.Sprintf("L36_%d", t.Ref)
	}
	return t.Key
}

// UnmarshalYAML accepts plain scalars ("A", 1, "hrm:LGUI:A"), the
// {l36: N} mapping form, and the L36_N shorthand.
func (t *Token) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		v := node.Value
		if rest, ok := strings.CutPrefix(v, "L36_"); ok {
			n, err := strconv.Atoi(rest)
			if err == nil {
				*t = Ref(n)
				return nil
			}
		}
		*t = Key(v)
		return nil
	case yaml.MappingNode:
		var m map[string]int
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("line %d: decode reference: %w", node.Line, err)
		}
		n, ok := m["l36"]
		if !ok || len(m) != 1 {
			return fmt.Errorf("line %d: reference must be {l36: N}", node.Line)
		}
		*t = Ref(n)
		return nil
	default:
		return fmt.Errorf("line %d: unsupported token node", node.Line)
	}
}

// MarshalYAML writes the token back in its authored form.
func (t Token) MarshalYAML() (any, error) {
	if t.IsRef {
		return map[string]int{"l36": t.Ref}, nil
	}
	return t.Key, nil
}

// KeyGrid is an ordered list of rows of tokens.
type KeyGrid struct {
	Rows [][]Token
}

// Grid builds a KeyGrid from rows of plain key expressions.
func Grid(rows ...[]string) *KeyGrid {
	g := &KeyGrid{Rows: make([][]Token, len(rows))}
	for i, r := range rows {
		g.Rows[i] = make([]Token, len(r))
		for j, k := range r {
			g.Rows[i][j] = Key(k)
		}
	}
	return g
}

func (g *KeyGrid) UnmarshalYAML(node *yaml.Node) error {
	return node.Decode(&g.Rows)
}

func (g KeyGrid) MarshalYAML() (any, error) {
	return g.Rows, nil
}

// Flatten returns the tokens row by row.
func (g *KeyGrid) Flatten() []Token {
	if g == nil {
		return nil
	}
	var out []Token
	for _, r := range g.Rows {
		out = append(out, r...)
	}
	return out
}

// Len is the number of tokens in the grid.
func (g *KeyGrid) Len() int {
	if g == nil {
		return 0
	}
	n := 0
	for _, r := range g.Rows {
		n += len(r)
	}
	return n
}

func (g *KeyGrid) Clone() *KeyGrid {
	if g == nil {
		return nil
	}
	out := &KeyGrid{Rows: make([][]Token, len(g.Rows))}
	for i, r := range g.Rows {
		out.Rows[i] = append([]Token(nil), r...)
	}
	return out
}

// Map returns a copy of the grid with fn applied to every token.
func (g *KeyGrid) Map(fn func(Token) Token) *KeyGrid {
	out := g.Clone()
	if out == nil {
		return nil
	}
	for i := range out.Rows {
		for j := range out.Rows[i] {
			out.Rows[i][j] = fn(out.Rows[i][j])
		}
	}
	return out
}

// ValidateCore checks the grid can serve as a canonical core.
func (g *KeyGrid) ValidateCore() error {
	if n := g.Len(); n != CoreKeys {
		return fmt.Errorf("%w: core has %d keys, want %d", ErrKeyCount, n, CoreKeys)
	}
	for i, t := range g.Flatten() {
		if t.IsRef {
			return fmt.Errorf("%w: core position %d is a reference", ErrUnresolvedReference, i)
		}
	}
	return nil
}
