package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/meigma/essence"
	"github.com/meigma/essence/sga"
)

func (a *app) packCommand() *Command {
	var (
		version    uint32
		name       string
		noCompress bool
	)
	c := &Command{
		Name:    "pack",
		Summary: "Build an archive from a directory",
		Usage:   "essence pack [flags] <dir> <archive.sga>",
		Flags: func() *pflag.FlagSet {
			fs := a.flagSet("pack")
			fs.Uint32Var(&version, "sga-version", uint32(sga.Version4), "archive layout: 2, 4, 5, 45 or 6")
			fs.StringVar(&name, "name", "", "archive name stored in the header (default \"data\")")
			fs.BoolVar(&noCompress, "no-compress", false, "store every file uncompressed")
			return fs
		},
	}
	c.Run = func(ctx context.Context, args []string) error {
		if len(args) != 2 {
			return c.usage("expected <dir> <archive.sga>")
		}
		opts := []sga.BuildOption{
			sga.BuildWithVersion(sga.Version(version)),
			sga.BuildWithCompression(!noCompress),
		}
		if name != "" {
			opts = append(opts, sga.BuildWithName(name))
		}

		out := args[1]
		f, err := os.Create(out) //nolint:gosec // caller-provided path
		if err != nil {
			return err
		}
		w := bufio.NewWriter(f)
		n, err := essence.Pack(ctx, args[0], w, opts...)
		if err == nil {
			err = w.Flush()
		}
		if err = errors.Join(err, f.Close()); err != nil {
			_ = os.Remove(out)
			return err
		}
		a.logger().Info("archive written", "path", out, "file_count", n)
		fmt.Fprintf(a.stdout, "packed %d files into %s\n", n, out)
		return nil
	}
	return c
}
