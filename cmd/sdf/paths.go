package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	"github.com/signadot/go-sdf/sdf"
	"github.com/signadot/go-sdf/sdfpath"
)

func paths(cfg *PathsConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Paths.Parse(cc, args)
	if err != nil {
		cfg.Paths.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	root := sdfpath.AbsoluteRoot()
	if cfg.Prefix != "" {
		root, err = sdfpath.Parse(cfg.Prefix)
		if err != nil {
			return fmt.Errorf("%w: -prefix: %w", cli.ErrUsage, err)
		}
	}
	env, err := cfg.env()
	if err != nil {
		return err
	}
	defer env.Close()
	for _, arg := range layerArgs(args) {
		l, err := openLayer(cc, env, arg)
		if err != nil {
			return fmt.Errorf("error processing %s: %w", arg, err)
		}
		err = l.Traverse(root, func(s sdf.Spec) error {
			if s.Path().IsAbsoluteRoot() {
				return nil
			}
			_, err := fmt.Fprintln(cc.Out, s.Path())
			return err
		})
		if err != nil {
			return fmt.Errorf("error listing %s: %w", arg, err)
		}
	}
	return nil
}
