package main

import (
	"context"
	"errors"

	"github.com/spf13/pflag"

	"github.com/meigma/essence/filesource"
	"github.com/meigma/essence/mappable"
)

func (a *app) catCommand() *Command {
	c := &Command{
		Name:    "cat",
		Summary: "Write files from a source to stdout",
		Usage:   "essence cat [flags] <source> <path>...",
		Flags:   func() *pflag.FlagSet { return a.flagSet("cat") },
	}
	c.Run = func(_ context.Context, args []string) (err error) {
		if len(args) < 2 {
			return c.usage("expected <source> <path>...")
		}
		src, err := a.open(args[0])
		if err != nil {
			return err
		}
		defer closeInto(src, &err)

		for _, path := range args[1:] {
			if err := a.cat(src, path); err != nil {
				return err
			}
		}
		return nil
	}
	return c
}

func (a *app) cat(src filesource.FileSource, path string) error {
	f, err := src.ReadFile(path)
	if err != nil {
		return err
	}
	m, err := mappable.MapAll(f)
	if err != nil {
		return errors.Join(err, f.Close())
	}
	_, err = a.stdout.Write(m.Bytes())
	return errors.Join(err, m.Close(), f.Close())
}
