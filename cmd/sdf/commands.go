package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts, &cli.Opt{
		Name:        "o",
		Description: "output file (default stdout)",
		Type:        cli.NamedFuncOpt(cfg.outOpt, "(filepath)"),
	})

	return cli.NewCommandAt(&cfg.Main, "sdf").
		WithSynopsis("sdf [opts] command [opts]").
		WithDescription("sdf is a tool for working with scene description layers.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return sdfMain(cfg, cc, args)
		}).
		WithSubs(
			CatCommand(cfg),
			CheckCommand(cfg),
			LsCommand(cfg),
			DiffCommand(cfg),
			PathsCommand(cfg),
			ResolveCommand(cfg))
}

func CatCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &CatConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Cat, "cat").
		WithAliases("c").
		WithSynopsis("cat [layers]").
		WithDescription("write layers in canonical form").
		WithRun(func(cc *cli.Context, args []string) error {
			return cat(cfg, cc, args)
		})
}

func CheckCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &CheckConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Check, "check").
		WithSynopsis("check [-q] [layers]").
		WithDescription("check that layers parse and round trip").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return check(cfg, cc, args)
		})
}

func LsCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &LsConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Ls, "ls").
		WithAliases("l", "list").
		WithSynopsis("ls [-l] [-where expr] layer").
		WithDescription("list the specs of a layer in a table").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return ls(cfg, cc, args)
		})
}

func DiffCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DiffConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Diff, "diff").
		WithAliases("d").
		WithSynopsis("diff [-names] <from> <to>").
		WithDescription("show the spec and field differences between two layers").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return diff(cfg, cc, args)
		})
}

func PathsCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &PathsConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Paths, "paths").
		WithAliases("p").
		WithSynopsis("paths [-prefix path] [layers]").
		WithDescription("print the spec paths of layers in namespace order").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return paths(cfg, cc, args)
		})
}

func ResolveCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ResolveConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Resolve, "resolve").
		WithAliases("r").
		WithSynopsis("resolve <identifiers>").
		WithDescription("print the files that layer identifiers resolve to").
		WithRun(func(cc *cli.Context, args []string) error {
			return resolve(cfg, cc, args)
		})
}
