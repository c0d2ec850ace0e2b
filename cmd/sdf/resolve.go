package main

import (
	"fmt"

	"github.com/scott-cotton/cli"
)

func resolve(cfg *ResolveConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Resolve.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: resolve requires at least one identifier", cli.ErrUsage)
	}
	env, err := cfg.env()
	if err != nil {
		return err
	}
	defer env.Close()
	failed := false
	for _, id := range args {
		p, err := env.Resolver().Resolve(id)
		if err != nil {
			failed = true
			fmt.Fprintf(cc.Out, "%s: %v\n", id, err)
			continue
		}
		fmt.Fprintf(cc.Out, "%s\t%s\n", id, p)
	}
	if failed {
		return cli.ExitCodeErr(1)
	}
	return nil
}
