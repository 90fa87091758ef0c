package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/meigma/essence/filesource"
	"github.com/meigma/essence/internal/pathutil"
	"github.com/meigma/essence/sga"
)

func (a *app) lsCommand() *Command {
	var recursive, long bool
	c := &Command{
		Name:    "ls",
		Summary: "List the files and directories of a source",
		Usage:   "essence ls [flags] <source> [dir]",
		Flags: func() *pflag.FlagSet {
			fs := a.flagSet("ls")
			fs.BoolVarP(&recursive, "recursive", "r", false, "list every file below dir")
			fs.BoolVarP(&long, "long", "l", false, "show file sizes")
			return fs
		},
	}
	c.Run = func(_ context.Context, args []string) (err error) {
		if len(args) < 1 || len(args) > 2 {
			return c.usage("expected <source> [dir]")
		}
		src, err := a.open(args[0])
		if err != nil {
			return err
		}
		defer closeInto(src, &err)

		dir := ""
		if len(args) == 2 {
			dir = filesource.Normalize(args[1])
		}
		if recursive {
			for path, err := range filesource.Walk(src, dir) {
				if err != nil {
					return err
				}
				if err := a.printEntry(src, path, path, long); err != nil {
					return err
				}
			}
			return nil
		}

		dirs, err := src.Dirs(dir)
		if err != nil {
			return err
		}
		for _, d := range dirs {
			if long {
				fmt.Fprintf(a.stdout, "%12s  %s\\\n", "-", d)
				continue
			}
			fmt.Fprintf(a.stdout, "%s\\\n", d)
		}
		files, err := src.Files(dir)
		if err != nil {
			return err
		}
		for _, f := range files {
			if err := a.printEntry(src, pathutil.Join(dir, f), f, long); err != nil {
				return err
			}
		}
		return nil
	}
	return c
}

// printEntry prints name, with the size of path when long is set. Archive
// entries report their stored size as well.
func (a *app) printEntry(src filesource.FileSource, path, name string, long bool) error {
	if !long {
		fmt.Fprintln(a.stdout, name)
		return nil
	}
	if ar, ok := src.(*sga.Archive); ok {
		info, err := ar.Stat(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "%12d  %s  (%d stored)\n", info.Size, name, info.CompressedSize)
		return nil
	}
	f, err := src.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%12d  %s\n", f.Size(), name)
	return f.Close()
}
