// Package config declares the keyforge command line.
package config

import (
	"github.com/alecthomas/kong"

	"github.com/kforge/keyforge/internal/cmd"
)

type Log struct {
	Level    string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"KEYFORGE_LOG_LEVEL"`
	File     string `help:"Write logs to this file instead of the console" env:"KEYFORGE_LOG_FILE"`
	Format   string `help:"Log format; auto is text on a terminal and json otherwise" enum:"auto,text,json" default:"auto" env:"KEYFORGE_LOG_FORMAT"`
	DumpFile string `help:"Write every compiled layer to this file (stdout at trace level)" env:"KEYFORGE_LOG_DUMP_FILE"`
}

type CLI struct {
	ConfigFile string           `name:"config" help:"Settings file (json, yaml or toml)" env:"KEYFORGE_CONFIG"`
	Version    kong.VersionFlag `help:"Print the version and exit"`
	Log        Log              `embed:"" prefix:"log."`

	Generate cmd.Generate      `cmd:"" help:"Generate firmware keymaps for every board"`
	Validate cmd.Validate      `cmd:"" help:"Compile every board without writing files"`
	Watch    cmd.Watch         `cmd:"" help:"Regenerate keymaps whenever the configuration changes"`
	Config   cmd.ConfigCommand `cmd:"" help:"Manage settings files"`
}
