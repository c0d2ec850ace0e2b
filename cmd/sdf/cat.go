package main

import (
	"fmt"
	"io"

	"github.com/scott-cotton/cli"
)

func cat(cfg *CatConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Cat.Parse(cc, args)
	if err != nil {
		return err
	}
	env, err := cfg.env()
	if err != nil {
		return err
	}
	defer env.Close()
	opts := cfg.writeOpts(cc.Out)
	for i, arg := range layerArgs(args) {
		l, err := openLayer(cc, env, arg)
		if err != nil {
			return fmt.Errorf("error processing %s: %w", arg, err)
		}
		text, err := l.ExportToString(opts...)
		if err != nil {
			return fmt.Errorf("error writing %s: %w", arg, err)
		}
		if i > 0 {
			io.WriteString(cc.Out, "\n")
		}
		if _, err := io.WriteString(cc.Out, text); err != nil {
			return err
		}
	}
	return nil
}
