package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/meigma/essence"
)

func (a *app) extractCommand() *Command {
	var (
		overwrite bool
		direct    bool
		workers   int
		readAhead int64
	)
	c := &Command{
		Name:    "extract",
		Summary: "Extract the files of a source into a directory",
		Usage:   "essence extract [flags] <source> <outdir> [dir]",
		Flags: func() *pflag.FlagSet {
			fs := a.flagSet("extract")
			fs.BoolVar(&overwrite, "overwrite", false, "replace files that already exist")
			fs.BoolVar(&direct, "direct", false, "write files in place instead of through a temporary file")
			fs.IntVarP(&workers, "workers", "j", 0, "files extracted at once (0 = GOMAXPROCS, <0 = serial)")
			fs.Int64Var(&readAhead, "read-ahead", 0, "bytes workers may hold in memory (0 = default)")
			return fs
		},
	}
	c.Run = func(ctx context.Context, args []string) (err error) {
		if len(args) < 2 || len(args) > 3 {
			return c.usage("expected <source> <outdir> [dir]")
		}
		src, err := a.open(args[0])
		if err != nil {
			return err
		}
		defer closeInto(src, &err)

		dir := ""
		if len(args) == 3 {
			dir = args[2]
		}
		stats, err := essence.Extract(ctx, src, args[1], dir,
			essence.ExtractWithOverwrite(overwrite),
			essence.ExtractWithDirectWrites(direct),
			essence.ExtractWithWorkers(workers),
			essence.ExtractWithReadAheadBytes(readAhead),
			essence.ExtractWithLogger(a.logger()),
		)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "extracted %d files (%d bytes), skipped %d\n", stats.Extracted, stats.Bytes, stats.Skipped)
		return nil
	}
	return c
}
