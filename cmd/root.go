package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"text/scanner"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/unientropy/graphql-codegen-typescript-plugin/gen"
	"github.com/unientropy/graphql-codegen-typescript-plugin/plugin"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"
)

const fetchTimeout = 30 * time.Second

var errNoGenerators = errors.New("gqlc: no generators specified")

type gqlcCmd struct {
	*cobra.Command

	fs     afero.Fs
	gens   []genConfig
	prefix string

	geners  []generator
	outDirs []string
	headers http.Header
	client  *fetchClient
}

func (c *CommandLine) newGqlcCmd(gens []genConfig, fs afero.Fs, prefix string) *gqlcCmd {
	cmd := &gqlcCmd{
		Command: &cobra.Command{
			Use:   "gqlc-apollo",
			Short: "Generate typed Apollo client wrappers for GraphQL operations",
			Long: `gqlc-apollo reads a GraphQL schema and a set of operation documents and
emits a TypeScript function for every query and mutation.

Generators are specified by using a *_out flag. The argument given to this
type of flag can be either:
	1) *_out=some/directory/to/output/file(s)/to
	2) *_out=comma=separated,key=val,generator=option,pairs=then:some/directory/to/output/file(s)/to

An additional flag, *_opt, can be used to pass options to a generator. The
argument given to this type of flag is the same format as the *_opt
key=value pairs above.

Alternatively, a codegen config file may be given with --config.`,
			Example:       "gqlc-apollo -s schema.graphql --apollo_out ./src/generated 'queries/*.graphql'",
			SilenceUsage:  true,
			SilenceErrors: true,
		},
		fs:     fs,
		gens:   gens,
		prefix: prefix,
		client: newFetchClient(fetchTimeout),
	}

	flags := cmd.Flags()
	flags.StringSliceP("schema", "s", nil, "Schema files or endpoints. May be specified multiple times.")
	flags.StringSliceP("import_path", "I", []string{"."}, `Specify the directory in which to search for
files.  May be specified multiple times;
directories will be searched in order.  If not
given, the current working directory is used.`)
	flags.Var(&headerFlag{value: &cmd.headers}, "header", "Specify headers for remote schema requests. May be specified multiple times.")
	flags.StringP("config", "c", "", "Path to a codegen config file")
	flags.Bool("skip-validation", false, "Skip validating documents against the schema")
	flags.BoolP("verbose", "v", false, "Output logging")

	for _, gc := range gens {
		opts := make(map[string]interface{})
		fp := &fparser{Scanner: new(scanner.Scanner)}

		flags.Var(genFlag{
			g:       gc.g,
			name:    gc.name,
			opts:    opts,
			geners:  &cmd.geners,
			outDirs: &cmd.outDirs,
			fp:      fp,
		}, gc.name, gc.help)

		if gc.opt == "" {
			continue
		}
		flags.Var(genFlag{
			g:     gc.g,
			name:  gc.name,
			opts:  opts,
			fp:    fp,
			isOpt: true,
		}, gc.opt, "Pass additional options to the "+strings.TrimSuffix(gc.name, "_out")+" generator.")
	}

	cmd.SetUsageTemplate(usageTmpl)
	cmd.PreRunE = chainPreRunEs(
		initLogger,
		validateFilenames,
		initGenDirs(fs, &cmd.outDirs),
	)
	cmd.RunE = cmd.run

	return cmd
}

// genRun is a single invocation of a generator.
type genRun struct {
	gen.Generator

	name string
	dir  string
	opts map[string]interface{}
}

type job struct {
	schemas        []string
	docs           []string
	skipValidation bool
	headers        http.Header
	runs           []genRun
}

func (c *gqlcCmd) run(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" && len(args) == 0 {
		return cmd.Help()
	}

	j, err := c.newJob(cmd, cfgPath, args)
	if err != nil {
		return err
	}
	if len(j.runs) == 0 {
		return errNoGenerators
	}

	importPaths, err := cmd.Flags().GetStringSlice("import_path")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	schemaSrcs, err := c.readSources(ctx, importPaths, j.headers, j.schemas)
	if err != nil {
		return err
	}

	docSrcs, err := c.readSources(ctx, importPaths, j.headers, j.docs)
	if err != nil {
		return err
	}

	schema, docs, err := gen.Load(schemaSrcs, docSrcs, j.skipValidation)
	if err != nil {
		return err
	}
	zap.L().Info("loaded inputs", zap.Int("schemaSources", len(schemaSrcs)), zap.Int("documents", len(docs)))

	opened := make(map[string]bool)
	for _, r := range j.runs {
		zap.L().Info("running generator", zap.String("name", r.name), zap.String("dir", r.dir))

		gctx := gen.WithContext(ctx, &genCtx{fs: c.fs, dir: r.dir, opened: opened})
		if err = r.Generate(gctx, schema, docs, r.opts); err != nil {
			return err
		}
	}
	return nil
}

// newJob merges the command line with the config file at cfgPath, if any.
func (c *gqlcCmd) newJob(cmd *cobra.Command, cfgPath string, args []string) (*job, error) {
	schemas, err := cmd.Flags().GetStringSlice("schema")
	if err != nil {
		return nil, err
	}
	skip, err := cmd.Flags().GetBool("skip-validation")
	if err != nil {
		return nil, err
	}

	j := &job{
		schemas:        schemas,
		docs:           args,
		skipValidation: skip,
		headers:        c.headers.Clone(),
	}
	for _, g := range c.geners {
		j.runs = append(j.runs, genRun{Generator: g.Generator, name: g.name, dir: g.outDir, opts: g.opts})
	}

	if cfgPath == "" {
		return j, nil
	}

	cfg, err := loadConfig(c.fs, cfgPath)
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded config", zap.String("path", cfgPath), zap.Int("outputs", len(cfg.Generates)))

	j.schemas = append(j.schemas, cfg.Schema...)
	j.docs = append(j.docs, cfg.Documents...)
	j.skipValidation = j.skipValidation || cfg.SkipDocumentsValidation

	if j.headers == nil {
		j.headers = make(http.Header)
	}
	for k, v := range cfg.header() {
		if _, set := j.headers[k]; !set {
			j.headers[k] = v
		}
	}

	for _, t := range cfg.targets() {
		g, err := c.lookupGen(t.plugin)
		if err != nil {
			return nil, err
		}
		if err = c.fs.MkdirAll(t.dir, 0755); err != nil {
			return nil, err
		}
		j.runs = append(j.runs, genRun{Generator: g, name: t.plugin, dir: t.dir, opts: t.opts})
	}
	return j, nil
}

// lookupGen resolves a plugin name from a config file to a generator.
func (c *gqlcCmd) lookupGen(name string) (gen.Generator, error) {
	for _, gc := range c.gens {
		if gc.name == name+"_out" {
			return gc.g, nil
		}
	}

	if c.prefix == "" {
		return nil, fmt.Errorf("gqlc: unknown plugin: %s", name)
	}
	return &plugin.Generator{Name: name, Prefix: c.prefix}, nil
}

// readSources reads every named input. Names may be globs or remote URLs.
func (c *gqlcCmd) readSources(ctx context.Context, importPaths []string, headers http.Header, names []string) ([]*ast.Source, error) {
	var srcs []*ast.Source
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		files := []string{name}
		if !isRemote(name) && isGlob(name) {
			var err error
			files, err = globFiles(c.fs, importPaths, name)
			if err != nil {
				return nil, err
			}
		}

		for _, f := range files {
			if seen[f] {
				continue
			}
			seen[f] = true

			b, err := c.readSource(ctx, importPaths, headers, f)
			if err != nil {
				return nil, err
			}
			srcs = append(srcs, &ast.Source{Name: f, Input: string(b)})
		}
	}
	return srcs, nil
}

func (c *gqlcCmd) readSource(ctx context.Context, importPaths []string, headers http.Header, name string) ([]byte, error) {
	if isRemote(name) {
		u, err := url.Parse(name)
		if err != nil {
			return nil, err
		}
		return c.client.fetch(ctx, u, headers)
	}

	f, err := openFile(c.fs, importPaths, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zap.L().Info("reading file", zap.String("name", f.Name()))
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	if filepath.Ext(name) == ".json" {
		return toSDL(b)
	}
	return b, nil
}

func isGlob(name string) bool { return strings.ContainsAny(name, "*?[") }

// globFiles expands pattern, trying each import path in order
// when the pattern is relative.
func globFiles(fs afero.Fs, importPaths []string, pattern string) ([]string, error) {
	patterns := []string{pattern}
	if !filepath.IsAbs(pattern) {
		patterns = patterns[:0]
		for _, iPath := range importPaths {
			patterns = append(patterns, filepath.Join(iPath, pattern))
		}
	}

	for _, p := range patterns {
		matches, err := afero.Glob(fs, p)
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			return matches, nil
		}
	}
	return nil, fmt.Errorf("gqlc: no files match: %s", pattern)
}

// openFile is just a helper for opening files
func openFile(fs afero.Fs, importPaths []string, filename string) (f afero.File, err error) {
	var exists bool
	if !filepath.IsAbs(filename) {
		for _, iPath := range importPaths {
			fname := filepath.Join(iPath, filename)
			exists, err = afero.Exists(fs, fname)
			if err != nil {
				return
			}

			if exists {
				filename = fname
				break
			}
		}
	}

	f, err = fs.Open(filename)
	return
}

// genCtx is the directory a generator writes to. Files written
// more than once during a run are appended to.
type genCtx struct {
	fs     afero.Fs
	dir    string
	opened map[string]bool
}

func (ctx *genCtx) Open(name string) (io.WriteCloser, error) {
	path := filepath.Join(ctx.dir, name)
	if err := ctx.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if ctx.opened[path] {
		flag = os.O_WRONLY | os.O_APPEND
	}
	ctx.opened[path] = true

	zap.L().Info("writing file", zap.String("path", path))
	return ctx.fs.OpenFile(path, flag, 0644)
}
