package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/meigma/essence/lookup2"
	"github.com/meigma/essence/mappable"
)

func (a *app) hashCommand() *Command {
	var (
		seed  uint32
		files bool
	)
	c := &Command{
		Name:    "hash",
		Summary: "Print the lookup2 hash of strings or files",
		Usage:   "essence hash [flags] <string>...",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("hash", pflag.ContinueOnError)
			fs.Uint32Var(&seed, "seed", 0, "initial hash value")
			fs.BoolVarP(&files, "files", "f", false, "hash the contents of the named files")
			return fs
		},
	}
	c.Run = func(_ context.Context, args []string) error {
		if len(args) == 0 {
			return c.usage("expected at least one argument")
		}
		for _, arg := range args {
			var h uint32
			if files {
				var err error
				if h, err = hashFile(arg, seed); err != nil {
					return err
				}
			} else {
				h = lookup2.HashString(arg, seed)
			}
			fmt.Fprintf(a.stdout, "%08x  %s\n", h, arg)
		}
		return nil
	}
	return c
}

func hashFile(path string, seed uint32) (uint32, error) {
	f, err := mappable.Open(path)
	if err != nil {
		return 0, err
	}
	m, err := mappable.MapAll(f)
	if err != nil {
		return 0, errors.Join(err, f.Close())
	}
	h := lookup2.Hash(m.Bytes(), seed)
	return h, errors.Join(m.Close(), f.Close())
}
