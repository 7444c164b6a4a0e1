package zmk

const keymapTmpl = `/*
 * {{.Banner}}
 * Board: {{.Board.Name}} ({{.Board.ID}})
 */

#include <behaviors.dtsi>
#include <dt-bindings/zmk/keys.h>
#include <dt-bindings/zmk/bt.h>
#include <dt-bindings/zmk/outputs.h>
{{range .Defines}}
#define {{.Name}} {{.Index}}
{{- end}}
{{- range .Overrides}}

&{{.Name}} {
{{- range .Props}}
    {{.}};
{{- end}}
};
{{- end}}

/ {
{{- if .Combos}}
    combos {
        compatible = "zmk,combos";
{{- range .Combos}}

        combo_{{.Name}} {
{{- if .TimeoutMs}}
            timeout-ms = <{{.TimeoutMs}}>;
{{- end}}
            key-positions = <{{.Positions}}>;
            bindings = <{{.Binding}}>;
{{- if .Layers}}
            layers = <{{.Layers}}>;
{{- end}}
{{- if .RequirePriorIdleMs}}
            require-prior-idle-ms = <{{.RequirePriorIdleMs}}>;
{{- end}}
{{- if .SlowRelease}}
            slow-release;
{{- end}}
        };
{{- end}}
    };
{{- end}}
{{- if .Macros}}

    macros {
{{- range .Macros}}

        {{.Name}}: {{.Name}} {
            compatible = "zmk,behavior-macro";
            #binding-cells = <0>;
            wait-ms = <10>;
            tap-ms = <10>;
            bindings
                = {{join .Lines "\n                , "}}
                ;
        };
{{- end}}
    };
{{- end}}
{{- if .HasBehaviors}}

    behaviors {
{{- range .HomeRowMods}}
{{template "holdtap" .}}
{{- end}}
{{- range .ModMorphs}}

        {{.Name}}: {{.Name}} {
            compatible = "zmk,behavior-mod-morph";
            #binding-cells = <0>;
            bindings = <{{.Base}}>, <{{.Shifted}}>;
            mods = <(MOD_LSFT|MOD_RSFT)>;
        };
{{- end}}
{{- range .Adaptive}}
{{template "adaptive" .}}
{{- end}}
{{- range .Guards}}
{{template "adaptive" .}}
{{- end}}
{{- range .Helpers}}
{{template "holdtap" .}}
{{- end}}
{{- range .TrainingHolds}}
{{template "holdtap" .}}
{{- end}}
    };
{{- end}}

    keymap {
        compatible = "zmk,keymap";
{{- range .Layers}}

        {{.Node}} {
            display-name = "{{.Name}}";
            bindings = <
{{- range .Rows}}
                {{.}}
{{- end}}
            >;
        };
{{- end}}
    };
};
{{- define "holdtap"}}
        {{.Name}}: {{.Name}} {
            compatible = "zmk,behavior-hold-tap";
            #binding-cells = <2>;
{{- range .Props}}
            {{.}};
{{- end}}
            bindings = {{.Bindings}};
        };
{{- end}}
{{- define "adaptive"}}
        {{.Name}}: {{.Name}} {
            compatible = "zmk,behavior-adaptive-key";
            #binding-cells = <0>;
            bindings = <{{.Default}}>;
{{- range .Triggers}}

            {{.Node}} {
                trigger-keys = <{{.Keys}}>;
                bindings = <{{.Binding}}>;
{{- if .Strict}}
                strict-modifiers;
{{- end}}
{{- if .IdleMs}}
                max-prior-idle-ms = <{{.IdleMs}}>;
{{- end}}
            };
{{- end}}
        };
{{- end}}
`
