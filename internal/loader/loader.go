// Package loader reads a keymap configuration directory.
//
// A directory holds keymap.yaml and boards.yaml, plus optional
// keycodes.yaml and aliases.yaml merged over the built-in tables. Boards
// may name an overlay keymap file (keymap_file) relative to the directory.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/kforge/keyforge/internal/keymap"
	"github.com/kforge/keyforge/internal/translate"
)

const (
	KeymapFile   = "keymap.yaml"
	BoardsFile   = "boards.yaml"
	KeycodesFile = "keycodes.yaml"
	AliasesFile  = "aliases.yaml"
)

type keymapDoc struct {
	Layers   yaml.Node                       `yaml:"layers"`
	Combos   []keymap.Combo                  `yaml:"combos"`
	Magic    yaml.Node                       `yaml:"magic_keys"`
	HoldTaps map[string]keymap.HoldTapTiming `yaml:"hold_taps"`
}

type boardsDoc struct {
	Boards yaml.Node `yaml:"boards"`
}

type magicDoc struct {
	Default   string    `yaml:"default"`
	TimeoutMs int       `yaml:"timeout_ms"`
	Mappings  yaml.Node `yaml:"mappings"`
}

// Load reads the configuration directory dir. Missing overlay files are
// reported on logger and the board keeps the shared keymap.
func Load(dir string, logger *slog.Logger) (*keymap.Config, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg := &keymap.Config{}

	codes := translate.DefaultKeycodes()
	extra := map[string]keymap.Keycode{}
	if err := readOptional(filepath.Join(dir, KeycodesFile), &extra); err != nil {
		return nil, err
	}
	for name, k := range extra {
		codes[name] = k
	}
	cfg.Keycodes = keymap.NewKeycodeTable(codes)

	cfg.Aliases = translate.DefaultAliases()
	aliases := map[string]keymap.BehaviorAlias{}
	if err := readOptional(filepath.Join(dir, AliasesFile), &aliases); err != nil {
		return nil, err
	}
	for name, a := range aliases {
		a.Name = name
		cfg.Aliases[name] = a
	}

	path := filepath.Join(dir, KeymapFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keymap: %w", err)
	}
	if err := ParseKeymap(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	path = filepath.Join(dir, BoardsFile)
	if data, err = os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read boards: %w", err)
	}
	if cfg.Boards, err = ParseBoards(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for _, b := range cfg.Boards {
		if !b.HasOverlay() {
			continue
		}
		path := filepath.Join(dir, b.KeymapFile)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Board keymap file not found, using shared keymap", "board", b.ID, "file", path)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read board keymap: %w", err)
		}
		layers, err := ParseLayers(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if cfg.Overlays == nil {
			cfg.Overlays = map[string][]keymap.Layer{}
		}
		cfg.Overlays[b.ID] = layers
		logger.Debug("Loaded board keymap", "board", b.ID, "file", path, "layers", len(layers))
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	logger.Debug("Loaded configuration",
		"dir", dir,
		"layers", len(cfg.Layers),
		"boards", len(cfg.Boards),
		"combos", len(cfg.Combos),
		"magic", len(cfg.Magic),
	)
	return cfg, nil
}

// Sources lists the files a configuration was read from, for watching.
func Sources(dir string, cfg *keymap.Config) []string {
	out := []string{
		filepath.Join(dir, KeymapFile),
		filepath.Join(dir, BoardsFile),
		filepath.Join(dir, KeycodesFile),
		filepath.Join(dir, AliasesFile),
	}
	if cfg != nil {
		for _, b := range cfg.Boards {
			if b.HasOverlay() {
				out = append(out, filepath.Join(dir, b.KeymapFile))
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func readOptional(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// ParseKeymap decodes keymap.yaml into cfg: layers, combos, magic keys and
// hold-tap timings, keeping the authored order.
func ParseKeymap(data []byte, cfg *keymap.Config) error {
	var doc keymapDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	layers, err := decodeLayers(&doc.Layers)
	if err != nil {
		return err
	}
	magic, err := decodeMagic(&doc.Magic)
	if err != nil {
		return err
	}
	cfg.Layers = layers
	cfg.Combos = doc.Combos
	cfg.Magic = magic
	cfg.HoldTaps = doc.HoldTaps
	return nil
}

// ParseLayers decodes only the layers of a keymap document, as used by
// board overlays.
func ParseLayers(data []byte) ([]keymap.Layer, error) {
	var doc keymapDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return decodeLayers(&doc.Layers)
}

// ParseBoards decodes boards.yaml: a mapping of board id to descriptor.
func ParseBoards(data []byte) ([]keymap.Board, error) {
	var doc boardsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	var out []keymap.Board
	err := pairs(&doc.Boards, func(id string, n *yaml.Node) error {
		var b keymap.Board
		if err := n.Decode(&b); err != nil {
			return fmt.Errorf("board %s: %w", id, err)
		}
		b.ID = id
		if b.Name == "" {
			b.Name = id
		}
		out = append(out, b)
		return nil
	})
	return out, err
}

func decodeLayers(n *yaml.Node) ([]keymap.Layer, error) {
	var out []keymap.Layer
	err := pairs(n, func(name string, v *yaml.Node) error {
		var l keymap.Layer
		if err := v.Decode(&l); err != nil {
			return fmt.Errorf("layer %s: %w", name, err)
		}
		l.Name = name
		out = append(out, l)
		return nil
	})
	return out, err
}

func decodeMagic(n *yaml.Node) ([]keymap.MagicKeyMapping, error) {
	var out []keymap.MagicKeyMapping
	err := pairs(n, func(base string, v *yaml.Node) error {
		var doc magicDoc
		if err := v.Decode(&doc); err != nil {
			return fmt.Errorf("magic_keys %s: %w", base, err)
		}
		m := keymap.MagicKeyMapping{BaseLayer: base, Default: doc.Default, TimeoutMs: doc.TimeoutMs}
		err := pairs(&doc.Mappings, func(pred string, alt *yaml.Node) error {
			a, err := decodeAlternate(alt)
			if err != nil {
				return fmt.Errorf("magic_keys %s: predecessor %q: %w", base, pred, err)
			}
			m.Entries = append(m.Entries, keymap.MagicEntry{Predecessor: pred, Alternate: a})
			return nil
		})
		if err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

// decodeAlternate accepts a single character (a key), longer text, or the
// explicit {kc: NAME} and {text: "..."} forms.
func decodeAlternate(n *yaml.Node) (keymap.Alternate, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if len([]rune(n.Value)) == 1 {
			return keymap.Alternate{Key: n.Value}, nil
		}
		if n.Value == "" {
			return keymap.Alternate{}, fmt.Errorf("line %d: empty alternate", n.Line)
		}
		return keymap.Alternate{Text: n.Value}, nil
	case yaml.MappingNode:
		var m struct {
			KC   string `yaml:"kc"`
			Text string `yaml:"text"`
		}
		if err := n.Decode(&m); err != nil {
			return keymap.Alternate{}, err
		}
		if (m.KC == "") == (m.Text == "") {
			return keymap.Alternate{}, fmt.Errorf("line %d: alternate needs exactly one of kc or text", n.Line)
		}
		return keymap.Alternate{Key: m.KC, Text: m.Text}, nil
	}
	return keymap.Alternate{}, fmt.Errorf("line %d: unsupported alternate", n.Line)
}

// pairs walks a mapping node in document order. An absent node is empty.
func pairs(n *yaml.Node, fn func(key string, v *yaml.Node) error) error {
	if n.Kind == 0 {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	seen := map[string]bool{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i].Value
		if seen[k] {
			return &keymap.Error{Position: -1, Token: k, Err: keymap.ErrNameCollision,
				Detail: fmt.Sprintf("line %d: declared twice", n.Content[i].Line)}
		}
		seen[k] = true
		if err := fn(k, n.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}
