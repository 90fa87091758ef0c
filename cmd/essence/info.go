package main

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/meigma/essence"
	"github.com/meigma/essence/filesource"
	"github.com/meigma/essence/internal/pathutil"
	"github.com/meigma/essence/model"
	"github.com/meigma/essence/sga"
	"github.com/meigma/essence/texture"
)

type entryPointInfo struct {
	Name  string `yaml:"name"`
	Alias string `yaml:"alias"`
	Dirs  uint32 `yaml:"dirs"`
	Files uint32 `yaml:"files"`
}

type archiveInfo struct {
	Name        string           `yaml:"name"`
	Version     uint32           `yaml:"version"`
	Files       int              `yaml:"files"`
	EntryPoints []entryPointInfo `yaml:"entry_points"`
}

type sourceInfo struct {
	Kind     string        `yaml:"kind"`
	Path     string        `yaml:"path"`
	Archive  *archiveInfo  `yaml:"archive,omitempty"`
	Archives []archiveInfo `yaml:"archives,omitempty"`
}

func describeArchive(a *sga.Archive) archiveInfo {
	info := archiveInfo{Name: a.Name(), Version: uint32(a.Version()), Files: a.Len()}
	for _, ep := range a.EntryPoints() {
		info.EntryPoints = append(info.EntryPoints, entryPointInfo{
			Name:  ep.Name,
			Alias: ep.Alias,
			Dirs:  ep.LastDir - ep.FirstDir,
			Files: ep.LastFile - ep.FirstFile,
		})
	}
	return info
}

func describeSource(path string, src essence.Source) sourceInfo {
	switch s := src.(type) {
	case *sga.Archive:
		info := describeArchive(s)
		return sourceInfo{Kind: "archive", Path: path, Archive: &info}
	case *filesource.Module:
		info := sourceInfo{Kind: "module", Path: path}
		for _, a := range s.Archives() {
			info.Archives = append(info.Archives, describeArchive(a))
		}
		return info
	default:
		return sourceInfo{Kind: "directory", Path: path}
	}
}

type materialInfo struct {
	Name      string            `yaml:"name"`
	Shader    string            `yaml:"shader"`
	Variables map[string]string `yaml:"variables,omitempty"`
}

type meshInfo struct {
	Name     string   `yaml:"name"`
	Material string   `yaml:"material"`
	Vertices int      `yaml:"vertices"`
	Stride   int      `yaml:"stride"`
	Layout   []string `yaml:"layout"`
	Objects  []string `yaml:"objects"`
}

type variableInfo struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Default string `yaml:"default"`
}

type modelInfo struct {
	Materials  []materialInfo `yaml:"materials"`
	Meshes     []meshInfo     `yaml:"meshes"`
	Variables  []variableInfo `yaml:"variables,omitempty"`
	Conditions []string       `yaml:"conditions,omitempty"`
	Textures   []string       `yaml:"textures,omitempty"`
}

func describeModel(m *model.Model) modelInfo {
	var info modelInfo
	for _, mat := range m.Materials() {
		mi := materialInfo{Name: mat.Name, Shader: mat.Shader}
		for _, v := range mat.Variables {
			if mi.Variables == nil {
				mi.Variables = make(map[string]string)
			}
			mi.Variables[v.Name] = v.Value.String()
		}
		info.Materials = append(info.Materials, mi)
	}
	for _, mesh := range m.Meshes() {
		mi := meshInfo{Name: mesh.Name, Vertices: mesh.VertexCount, Stride: mesh.Stride}
		if mesh.Material != nil {
			mi.Material = mesh.Material.Name
		}
		for _, el := range mesh.Layout {
			mi.Layout = append(mi.Layout, el.Semantic.String()+":"+el.Format.String())
		}
		for _, obj := range mesh.Objects {
			mi.Objects = append(mi.Objects, obj.Name)
		}
		info.Meshes = append(info.Meshes, mi)
	}
	for _, v := range m.Variables().All() {
		info.Variables = append(info.Variables, variableInfo{Name: v.Name(), Type: v.Type().String(), Default: v.Default().String()})
	}
	for _, c := range m.Conditions() {
		info.Conditions = append(info.Conditions, c.Name())
	}
	info.Textures = m.Textures()
	return info
}

type mipInfo struct {
	Level  uint32 `yaml:"level"`
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
	Pitch  uint32 `yaml:"pitch"`
	Bytes  int    `yaml:"bytes"`
}

type textureInfo struct {
	Width  uint32    `yaml:"width"`
	Height uint32    `yaml:"height"`
	Format string    `yaml:"format"`
	Mips   []mipInfo `yaml:"mips"`
}

func describeTexture(t *texture.Texture) textureInfo {
	info := textureInfo{Width: t.Width, Height: t.Height, Format: t.Format.String()}
	for _, m := range t.Mips {
		info.Mips = append(info.Mips, mipInfo{Level: m.Level, Width: m.Width, Height: m.Height, Pitch: m.Pitch, Bytes: len(m.Data)})
	}
	return info
}

type fileInfo struct {
	Path string `yaml:"path"`
	Size uint64 `yaml:"size"`
}

func (a *app) infoCommand() *Command {
	c := &Command{
		Name:    "info",
		Summary: "Describe a source, or a model or texture inside it, as YAML",
		Usage:   "essence info [flags] <source> [path]",
		Flags:   func() *pflag.FlagSet { return a.flagSet("info") },
	}
	c.Run = func(_ context.Context, args []string) (err error) {
		if len(args) < 1 || len(args) > 2 {
			return c.usage("expected <source> [path]")
		}
		src, err := a.open(args[0])
		if err != nil {
			return err
		}
		defer closeInto(src, &err)

		var out any
		if len(args) == 1 {
			out = describeSource(args[0], src)
		} else if out, err = a.describeFile(src, args[1]); err != nil {
			return err
		}
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		return errors.Join(enc.Encode(out), enc.Close())
	}
	return c
}

// describeFile loads path as a model or texture according to its
// extension. Other files are described by size.
func (a *app) describeFile(src filesource.FileSource, path string) (any, error) {
	base := pathutil.Base(filesource.Normalize(path))
	switch {
	case strings.HasSuffix(base, ".rgm"):
		m, err := model.LoadFrom(src, path, model.WithLogger(a.logger()))
		if err != nil {
			return nil, err
		}
		defer m.Close()
		return describeModel(m), nil
	case strings.HasSuffix(base, model.TextureExtension):
		t, err := texture.LoadFrom(src, path, texture.WithLogger(a.logger()))
		if err != nil {
			return nil, err
		}
		defer t.Close()
		return describeTexture(t), nil
	}
	f, err := src.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return fileInfo{Path: filesource.Normalize(path), Size: f.Size()}, f.Close()
}
