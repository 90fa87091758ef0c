package main

import (
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/meigma/essence"
	"github.com/meigma/essence/cache/disk"
)

// app holds the state shared by every command.
type app struct {
	stdout io.Writer
	stderr io.Writer

	verbose       bool
	cacheDir      string
	cacheMaxBytes int64
	verify        bool
	sections      []string
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

// flagSet returns a flag set carrying the global flags.
func (a *app) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	fs.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")
	fs.StringVar(&a.cacheDir, "cache-dir", "", "cache inflated archive files under `dir`")
	fs.Int64Var(&a.cacheMaxBytes, "cache-max-bytes", 0, "prune the cache directory beyond `n` bytes (0 = unlimited)")
	fs.BoolVar(&a.verify, "verify", false, "check stored content hashes of version 6 archives")
	fs.StringSliceVar(&a.sections, "section", nil, "module `section` to search, repeatable (default: all data sections)")
	return fs
}

func (a *app) logger() *slog.Logger {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
}

// open opens a directory, archive or module according to the global flags.
func (a *app) open(path string) (essence.Source, error) {
	opts := []essence.Option{
		essence.WithLogger(a.logger()),
		essence.WithVerifyHashes(a.verify),
	}
	if len(a.sections) > 0 {
		opts = append(opts, essence.WithSections(a.sections...))
	}
	if a.cacheDir != "" {
		c, err := disk.New(a.cacheDir, disk.WithMaxBytes(a.cacheMaxBytes), disk.WithLogger(a.logger()))
		if err != nil {
			return nil, err
		}
		opts = append(opts, essence.WithCache(c))
	}
	return essence.Open(path, opts...)
}

// closeInto closes c and records its error in *err unless one is set.
func closeInto(c io.Closer, err *error) {
	*err = errors.Join(*err, c.Close())
}

func (a *app) root() *Command {
	return &Command{
		Name:    "essence",
		Summary: "Inspect and unpack SGA archives, modules and chunky resources",
		Subcommands: []*Command{
			a.lsCommand(),
			a.catCommand(),
			a.extractCommand(),
			a.packCommand(),
			a.chunksCommand(),
			a.infoCommand(),
			a.hashCommand(),
		},
	}
}
