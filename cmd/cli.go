// Package cmd implements the command line interface for gqlc-apollo.
package cmd

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/unientropy/graphql-codegen-typescript-plugin/gen"
	"github.com/unientropy/graphql-codegen-typescript-plugin/plugin"
)

type option func(*CommandLine)

// WithFS configures the underlying afero.FS used to read/write files.
func WithFS(fs afero.Fs) option {
	return func(c *CommandLine) {
		c.fs = fs
	}
}

type genConfig struct {
	g    gen.Generator
	name string
	opt  string
	help string
}

// CommandLine provides a convient API for adding generators to gqlc-apollo.
type CommandLine struct {
	prefix string
	fs     afero.Fs

	cmds []cmder
	gens []genConfig
}

type cmder interface {
	getCommand() *cobra.Command
}

type baseCmd struct {
	*cobra.Command
}

func (cmd *baseCmd) getCommand() *cobra.Command { return cmd.Command }

func (c *CommandLine) addCommand(cmds ...cmder) *CommandLine {
	c.cmds = append(c.cmds, cmds...)
	return c
}

func (c *CommandLine) build() *cobra.Command {
	cmd := c.newGqlcCmd(c.gens, c.fs, c.prefix)
	for _, cmdr := range c.cmds {
		cmd.AddCommand(cmdr.getCommand())
	}

	return cmd.Command
}

// NewCLI returns a CommandLine implementation.
func NewCLI(opts ...option) (c *CommandLine) {
	c = new(CommandLine)

	for _, opt := range opts {
		opt(c)
	}

	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}

	return
}

// AllowPlugins sets the plugin prefix to be used
// when looking up plugin executables.
func (c *CommandLine) AllowPlugins(prefix string) { c.prefix = prefix }

// RegisterGenerator registers a generator with the compiler.
// name is the output flag, e.g. "apollo_out", and opt the
// options flag, e.g. "apollo_opt".
func (c *CommandLine) RegisterGenerator(g gen.Generator, name, opt, help string) {
	c.gens = append(c.gens, genConfig{
		g:    g,
		name: name,
		opt:  opt,
		help: help,
	})
}

// registerPlugins registers a plugin generator for every *_out
// flag in args which does not belong to a registered generator.
func (c *CommandLine) registerPlugins(args []string) {
	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			continue
		}

		name := strings.TrimPrefix(arg, "--")
		if i := strings.IndexByte(name, '='); i >= 0 {
			name = name[:i]
		}
		if !strings.HasSuffix(name, "_out") || c.registered(name) {
			continue
		}

		pluginName := strings.TrimSuffix(name, "_out")
		c.RegisterGenerator(
			&plugin.Generator{Name: pluginName, Prefix: c.prefix},
			name,
			pluginName+"_opt",
			fmt.Sprintf("Generate using the %s%s plugin.", c.prefix, pluginName),
		)
	}
}

func (c *CommandLine) registered(name string) bool {
	for _, gc := range c.gens {
		if gc.name == name {
			return true
		}
	}
	return false
}

func wrapPanic(err error, stack []byte) error {
	return fmt.Errorf("gqlc: recovered from unexpected panic: %w\n\n%s", err, stack)
}

// Run executes the compiler
func (c *CommandLine) Run(args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()

			rerr, ok := r.(error)
			if ok {
				err = wrapPanic(rerr, stack)
				return
			}

			err = wrapPanic(fmt.Errorf("%#v", r), stack)
		}
	}()

	if c.prefix != "" {
		c.registerPlugins(args[1:])
	}

	cmd := c.addCommand(c.newVersionCmd()).build()
	c.cmds = c.cmds[:0]

	cmd.SetArgs(args[1:])
	return cmd.Execute()
}
