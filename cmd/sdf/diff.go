package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/scott-cotton/cli"

	"github.com/signadot/go-sdf/sdfdiff"
)

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		cfg.Diff.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires 2 args, got %v", cli.ErrUsage, args)
	}
	env, err := cfg.env()
	if err != nil {
		return err
	}
	defer env.Close()
	from, err := readStore(cc, env, args[0])
	if err != nil {
		return fmt.Errorf("error decoding %s: %w", args[0], err)
	}
	to, err := readStore(cc, env, args[1])
	if err != nil {
		return fmt.Errorf("error decoding %s: %w", args[1], err)
	}
	deltas := sdfdiff.Diff(from, to)
	if len(deltas) == 0 {
		return nil
	}

	colors := map[sdfdiff.Kind]*color.Color{
		sdfdiff.SpecAdded:    color.New(color.FgGreen),
		sdfdiff.SpecRemoved:  color.New(color.FgRed),
		sdfdiff.FieldChanged: color.New(color.FgYellow),
	}
	useColor := cfg.useColor(cc.Out)
	for _, c := range colors {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	for i := range deltas {
		d := &deltas[i]
		fmt.Fprintln(cc.Out, colors[d.Kind].Sprint(d.String()))
		if !cfg.Names {
			continue
		}
		old, ok1 := d.Old.([]string)
		nu, ok2 := d.New.([]string)
		if !ok1 || !ok2 {
			continue
		}
		for _, e := range sdfdiff.NameEdits(old, nu) {
			line := fmt.Sprintf("    %s %s", e.Type, strings.Join(e.Names, " "))
			switch e.Type {
			case sdfdiff.EditInsert:
				line = colors[sdfdiff.SpecAdded].Sprint(line)
			case sdfdiff.EditDelete:
				line = colors[sdfdiff.SpecRemoved].Sprint(line)
			}
			fmt.Fprintln(cc.Out, line)
		}
	}
	return cli.ExitCodeErr(1)
}
