package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/sdfpath"
	"github.com/signadot/go-sdf/specfilter"
	"github.com/signadot/go-sdf/value"
)

func ls(cfg *LsConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Ls.Parse(cc, args)
	if err != nil {
		cfg.Ls.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) > 1 {
		return fmt.Errorf("%w: ls takes at most one layer, got %v", cli.ErrUsage, args)
	}
	env, err := cfg.env()
	if err != nil {
		return err
	}
	defer env.Close()
	m, err := readStore(cc, env, layerArgs(args)[0])
	if err != nil {
		return err
	}
	var ps []sdfpath.Path
	if cfg.Where != "" {
		f, err := specfilter.Compile(cfg.Where, env.Schema())
		if err != nil {
			return fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		if ps, err = f.Select(m); err != nil {
			return err
		}
	} else {
		m.VisitSpecs(func(p sdfpath.Path, _ sdfdata.SpecType) bool {
			if !p.IsAbsoluteRoot() {
				ps = append(ps, p)
			}
			return true
		})
	}

	headers := []string{"PATH", "TYPE"}
	if cfg.Long {
		headers = append(headers, "TYPE NAME", "SPECIFIER")
	}
	rows := make([][]string, 0, len(ps))
	for _, p := range ps {
		row := []string{p.String(), m.SpecType(p).String()}
		if cfg.Long {
			tn, _ := m.ReadField(p, sdfdata.FieldTypeName)
			t, _ := tn.(value.Token)
			spec := ""
			if s, ok := m.ReadField(p, sdfdata.FieldSpecifier); ok {
				spec = s.(sdfdata.Specifier).String()
			}
			row = append(row, string(t), spec)
		}
		rows = append(rows, row)
	}
	_, err = fmt.Fprintln(cc.Out, renderTable(headers, rows, cfg.useColor(cc.Out)))
	return err
}
