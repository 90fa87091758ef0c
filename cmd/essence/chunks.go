package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/meigma/essence"
	"github.com/meigma/essence/chunky"
	"github.com/meigma/essence/mappable"
)

type chunkNode struct {
	Chunk    string      `yaml:"chunk"`
	Name     string      `yaml:"name,omitempty"`
	Size     int         `yaml:"size"`
	Children []chunkNode `yaml:"children,omitempty"`
}

type chunkTree struct {
	Version  uint32      `yaml:"version"`
	Platform uint32      `yaml:"platform"`
	Chunks   []chunkNode `yaml:"chunks"`
}

func newChunkTree(cf *chunky.File) chunkTree {
	return chunkTree{
		Version:  cf.FormatVersion(),
		Platform: cf.Platform(),
		Chunks:   chunkNodes(cf.Root()),
	}
}

func chunkNodes(parent *chunky.Chunk) []chunkNode {
	var nodes []chunkNode
	for c := range parent.Children() {
		nodes = append(nodes, chunkNode{
			Chunk:    c.String(),
			Name:     c.Name(),
			Size:     c.Size(),
			Children: chunkNodes(c),
		})
	}
	return nodes
}

func (a *app) chunksCommand() *Command {
	var asYAML bool
	c := &Command{
		Name:    "chunks",
		Summary: "Print the chunk tree of a chunky file",
		Usage:   "essence chunks [flags] <file> | <source> <path>",
		Flags: func() *pflag.FlagSet {
			fs := a.flagSet("chunks")
			fs.BoolVar(&asYAML, "yaml", false, "print the tree as YAML")
			return fs
		},
	}
	c.Run = func(_ context.Context, args []string) (err error) {
		var cf *chunky.File
		switch len(args) {
		case 1:
			cf, err = chunky.OpenPath(args[0])
		case 2:
			var src essence.Source
			if src, err = a.open(args[0]); err != nil {
				return err
			}
			defer closeInto(src, &err)
			var f mappable.File
			if f, err = src.ReadFile(args[1]); err != nil {
				return err
			}
			if cf, err = chunky.Open(f); err != nil {
				return errors.Join(err, f.Close())
			}
		default:
			return c.usage("expected <file> or <source> <path>")
		}
		if err != nil {
			return err
		}
		defer closeInto(cf, &err)

		tree := newChunkTree(cf)
		if asYAML {
			enc := yaml.NewEncoder(a.stdout)
			enc.SetIndent(2)
			return errors.Join(enc.Encode(tree), enc.Close())
		}
		fmt.Fprintf(a.stdout, "chunky v%d platform %d\n", tree.Version, tree.Platform)
		a.printChunks(tree.Chunks, 1)
		return nil
	}
	return c
}

func (a *app) printChunks(nodes []chunkNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		if n.Name != "" {
			fmt.Fprintf(a.stdout, "%s%s %q (%d bytes)\n", indent, n.Chunk, n.Name, n.Size)
		} else {
			fmt.Fprintf(a.stdout, "%s%s (%d bytes)\n", indent, n.Chunk, n.Size)
		}
		a.printChunks(n.Children, depth+1)
	}
}
