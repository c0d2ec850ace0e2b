package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/textfmt"
)

func check(cfg *CheckConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Check.Parse(cc, args)
	if err != nil {
		cfg.Check.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	failed := 0
	for _, arg := range layerArgs(args) {
		n, err := checkOne(cc, cfg, arg)
		if err != nil {
			failed++
			fmt.Fprintf(cc.Out, "%s: %v\n", arg, err)
			continue
		}
		if !cfg.Quiet {
			fmt.Fprintf(cc.Out, "%s: ok (%d specs)\n", arg, n)
		}
	}
	if failed > 0 {
		return cli.ExitCodeErr(1)
	}
	return nil
}

// checkOne reads arg and verifies that writing and reading it again gives
// the same specs and fields.
func checkOne(cc *cli.Context, cfg *CheckConfig, arg string) (int, error) {
	env, err := cfg.env()
	if err != nil {
		return 0, err
	}
	defer env.Close()
	m, err := readStore(cc, env, arg)
	if err != nil {
		return 0, err
	}
	text, err := textfmt.WriteString(m, textfmt.WriteSchema(env.Schema()))
	if err != nil {
		return 0, err
	}
	again, err := textfmt.Read([]byte(text), textfmt.ReadSchema(env.Schema()))
	if err != nil {
		return 0, fmt.Errorf("canonical form does not parse: %w", err)
	}
	if !sdfdata.Equal(m, again) {
		return 0, fmt.Errorf("canonical form does not round trip")
	}
	return m.Len() - 1, nil
}
