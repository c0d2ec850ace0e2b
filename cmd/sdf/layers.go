package main

import (
	"fmt"
	"io"
	"os"

	"github.com/scott-cotton/cli"

	"github.com/signadot/go-sdf/sdf"
	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/textfmt"
)

// openLayer opens arg as a layer. "-" reads standard input into an
// anonymous layer.
func openLayer(cc *cli.Context, env *sdf.Env, arg string) (*sdf.Layer, error) {
	if arg != "-" {
		return sdf.FindOrOpen(env, arg, nil)
	}
	d, err := io.ReadAll(cc.In)
	if err != nil {
		return nil, fmt.Errorf("error reading stdin: %w", err)
	}
	l, err := sdf.CreateAnonymous(env, "stdin")
	if err != nil {
		return nil, err
	}
	if err := l.ImportFromString(string(d)); err != nil {
		return nil, err
	}
	return l, nil
}

// readStore reads the layer file arg into memory without registering it,
// locating it with the resolver of env.
func readStore(cc *cli.Context, env *sdf.Env, arg string) (*sdfdata.Mem, error) {
	var (
		d   []byte
		err error
	)
	if arg == "-" {
		d, err = io.ReadAll(cc.In)
	} else {
		var file string
		file, err = env.Resolver().Resolve(arg)
		if err != nil {
			return nil, err
		}
		d, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read %q: %w", arg, err)
	}
	return textfmt.Read(d, textfmt.ReadSchema(env.Schema()))
}

func layerArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"-"}
	}
	return args
}
