package keymap

import "maps"

// WithOverlay returns a copy of the configuration with a board's overlay
// layers merged in. An overlay layer replaces the layout of the same-named
// layer and adds to its extensions; a full layout keeps the base core so its
// canonical references still resolve. Unknown layers are appended.
func (c *Config) WithOverlay(overlay []Layer) *Config {
	out := c.Clone()
	for _, ol := range overlay {
		ol = ol.Clone()
		base, ok := out.Layer(ol.Name)
		if !ok {
			out.Layers = append(out.Layers, ol)
			continue
		}
		switch {
		case ol.FullLayout != nil:
			base.FullLayout = ol.FullLayout
			if ol.Core != nil {
				base.Core = ol.Core
			}
		case ol.Core != nil:
			base.Core = ol.Core
			base.FullLayout = nil
		}
		if len(ol.Extensions) > 0 {
			if base.Extensions == nil {
				base.Extensions = map[string]LayerExtension{}
			}
			maps.Copy(base.Extensions, ol.Extensions)
		}
		if ol.Family != "" {
			base.Family = ol.Family
		}
	}
	return out
}
