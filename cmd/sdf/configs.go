package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"

	"github.com/signadot/go-sdf/resolver"
	"github.com/signadot/go-sdf/sdf"
	"github.com/signadot/go-sdf/textfmt"
)

type MainConfig struct {
	Color   bool   `cli:"name=color desc='write layers in color'"`
	Verbose bool   `cli:"name=v aliases=verbose desc='log debug messages to stderr'"`
	Config  string `cli:"name=r aliases=resolver desc='resolver config file (yaml or toml)'"`
	Indent  int    `cli:"name=indent desc='indentation width when writing layers'"`

	Out      string
	CloseOut func() error

	Main *cli.Command
}

func (cfg *MainConfig) logger() *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// env returns a layer environment whose resolver is read from the -r
// config when given.
func (cfg *MainConfig) env() (*sdf.Env, error) {
	opts := []sdf.EnvOption{sdf.WithLogger(cfg.logger())}
	if cfg.Config != "" {
		rc, err := resolver.LoadConfig(cfg.Config)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdf.WithResolver(rc.Resolver()))
	}
	return sdf.NewEnv(opts...), nil
}

func (cfg *MainConfig) colorsSet() bool {
	for _, opt := range cfg.Main.Opts {
		if opt.Name == "color" {
			return opt.Value != nil
		}
	}
	return false
}

// useColor reports whether output to w is colored: -color wins, otherwise
// color is used on terminals.
func (cfg *MainConfig) useColor(w io.Writer) bool {
	if cfg.Color || cfg.colorsSet() {
		return cfg.Color
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

func (cfg *MainConfig) writeOpts(w io.Writer) []textfmt.WriteOption {
	var res []textfmt.WriteOption
	if cfg.Indent > 0 {
		res = append(res, textfmt.WriteIndent(cfg.Indent))
	}
	if cfg.useColor(w) {
		color.NoColor = false
		res = append(res, textfmt.WriteColors(textfmt.NewColors()))
	}
	return res
}

type CatConfig struct {
	*MainConfig
	Cat *cli.Command
}

type CheckConfig struct {
	*MainConfig
	Quiet bool `cli:"name=q desc='only report failures'"`

	Check *cli.Command
}

type LsConfig struct {
	*MainConfig
	Where string `cli:"name=where aliases=w desc='expr predicate selecting specs'"`
	Long  bool   `cli:"name=l desc='show type name and specifier columns'"`

	Ls *cli.Command
}

type DiffConfig struct {
	*MainConfig
	Names bool `cli:"name=names desc='show edits of child name lists'"`

	Diff *cli.Command
}

type PathsConfig struct {
	*MainConfig
	Prefix string `cli:"name=prefix desc='only show paths under this path'"`

	Paths *cli.Command
}

type ResolveConfig struct {
	*MainConfig
	Resolve *cli.Command
}
