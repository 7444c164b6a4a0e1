package main

import (
	"os"
	"strings"

	"github.com/kforge/keyforge/internal/config"
	"github.com/kforge/keyforge/internal/configpaths"
	"github.com/kforge/keyforge/internal/emit/common"
	"github.com/kforge/keyforge/internal/log"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

func main() {

	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	var cli config.CLI
	ctx := kong.Parse(&cli,
		kong.Name("keyforge"),
		kong.Description("Keyboard layout compiler for QMK and ZMK"),
		kong.UsageOnError(),
		kong.Vars{"version": common.GetVersion()},
		// Load settings from JSON/YAML/TOML in priority order; flags/env override them.
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	logger, closeFiles, err := log.SetupLogger(cli.Log.Level, cli.Log.File, cli.Log.Format)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	var dump log.DumpLogger
	if cli.Log.DumpFile != "" {
		f, err := os.OpenFile(cli.Log.DumpFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("failed to open dump file", "file", cli.Log.DumpFile, "error", err)
			dump = log.NewDump(nil)
		} else {
			dump = log.NewDump(f)
			closeFiles = append(closeFiles, f)
		}
	} else if cli.Log.Level == "trace" {
		dump = log.NewDump(os.Stdout)
	} else {
		dump = log.NewDump(nil)
	}

	ctx.Bind(logger)
	ctx.BindTo(dump, (*log.DumpLogger)(nil))

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

func findUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	if v := os.Getenv("KEYFORGE_CONFIG"); v != "" {
		return v
	}
	return ""
}
