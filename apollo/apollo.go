// Package apollo contains a generator which emits typed Apollo client
// wrappers for GraphQL operations.
//
// For every query and mutation found in the given documents a single
// exported async function is generated. The function references the
// {Name}Query, {Name}QueryVariables and {Name}Document symbols (or their
// Mutation counterparts) which are expected to be produced by a separate
// TypeScript type generation step using the same naming convention.
package apollo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/unientropy/graphql-codegen-typescript-plugin/gen"
	"github.com/unientropy/graphql-codegen-typescript-plugin/naming"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"
)

// DefaultFilename is the name of the generated file when none is configured.
const DefaultFilename = "operations.ts"

// ErrEmptySelectionSet is returned for an operation which selects no fields.
var ErrEmptySelectionSet = errors.New("apollo: empty selection set")

// Output is the result of running the emitter.
type Output struct {
	// Prepend are the statements placed at the top of the output file.
	Prepend []string

	// Content is the body appended after Prepend.
	Content string
}

// Info carries host provided information about the current run.
type Info struct {
	// OutputFile is the file the output is destined for.
	OutputFile string

	// Logger, if set, receives a warning for every operation
	// which is skipped because of its kind.
	Logger *zap.Logger
}

// Unit is the rendered wrapper for a single operation.
type Unit struct {
	Name         string
	TypeName     string
	DataName     string
	HasVariables bool
	Kind         ast.Operation
	Text         string
}

// Plugin emits a wrapper function for every query and mutation within docs.
//
// Documents are walked in order and operations within a document in
// source order. Operations of any other kind are skipped. The schema
// is accepted for parity with other generators and is not inspected.
func Plugin(schema *gen.Schema, docs []*gen.Document, cfg naming.Config, info *Info) (*Output, error) {
	conv, err := naming.NewConverter(cfg)
	if err != nil {
		return nil, err
	}

	var contents []string
	for _, doc := range docs {
		for _, op := range doc.Operations {
			u, err := emit(conv, op)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", doc.Name(), err)
			}

			if u == nil {
				if info != nil && info.Logger != nil {
					info.Logger.Warn("skipping unsupported operation",
						zap.String("doc", doc.Name()),
						zap.String("operation", op.Name),
						zap.String("kind", string(op.Operation)),
					)
				}
				continue
			}

			contents = append(contents, u.Text)
		}
	}

	return &Output{
		Prepend: Preamble(),
		Content: strings.Join(contents, "\n"),
	}, nil
}

// emit renders a single operation. A nil Unit is returned for
// operation kinds without a template.
func emit(conv *naming.Converter, op *ast.OperationDefinition) (*Unit, error) {
	tmpl, ok := templates[op.Operation]
	if !ok {
		return nil, nil
	}

	if op.Name == "" {
		return nil, fmt.Errorf("apollo: anonymous %s operations are not supported", op.Operation)
	}

	dataName, err := dataAccessor(op.SelectionSet)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op.Operation, op.Name, err)
	}

	u := &Unit{
		Name:         op.Name,
		TypeName:     conv.Convert(op.Name, naming.WithTypesPrefix(false), naming.WithTypesSuffix(false)),
		DataName:     dataName,
		HasVariables: len(op.VariableDefinitions) > 0,
		Kind:         op.Operation,
	}
	u.Text = tmpl.render(u)
	return u, nil
}

// dataAccessor returns the expression used to unwrap the response.
// A lone top-level field is narrowed to with optional chaining, since
// a response may carry no data without carrying an error.
func dataAccessor(set ast.SelectionSet) (string, error) {
	switch len(set) {
	case 0:
		return "", ErrEmptySelectionSet
	case 1:
	default:
		return "data", nil
	}

	switch sel := set[0].(type) {
	case *ast.Field:
		return "data?." + sel.Name, nil
	case *ast.FragmentSpread:
		return "data?." + sel.Name, nil
	default:
		return "", fmt.Errorf("apollo: cannot narrow response to a lone %T", sel)
	}
}

// Options contains the options for the Apollo generator.
type Options struct {
	// Filename of the generated file, relative to the output directory.
	Filename string

	Naming naming.Config
}

func getOptions(opts map[string]interface{}) (gOpts *Options, err error) {
	gOpts = &Options{Filename: DefaultFilename}

	if v, ok := opts["filename"]; ok {
		s, isS := v.(string)
		if !isS || s == "" {
			return gOpts, fmt.Errorf("apollo: filename must be a non-empty string, got: %v", v)
		}
		gOpts.Filename = s
	}

	gOpts.Naming, err = naming.FromOptions(opts)
	return
}

// Generator generates TypeScript Apollo client wrappers.
type Generator struct {
	sync.Mutex
	bytes.Buffer
}

// Generate writes the wrappers for all operations in docs to a single file.
func (g *Generator) Generate(ctx context.Context, schema *gen.Schema, docs []*gen.Document, opts map[string]interface{}) (err error) {
	g.Lock()
	defer g.Unlock()

	gOpts, err := getOptions(opts)
	defer func() {
		if err != nil {
			err = gen.GeneratorError{
				DocName: gOpts.Filename,
				GenName: "apollo",
				Msg:     err.Error(),
			}
		}
	}()
	if err != nil {
		return
	}

	log := zap.L().Named("apollo")
	g.Reset()

	out, err := Plugin(schema, docs, gOpts.Naming, &Info{OutputFile: gOpts.Filename, Logger: log})
	if err != nil {
		return
	}

	for _, stmt := range out.Prepend {
		g.WriteString(stmt)
		g.WriteByte('\n')
	}
	g.WriteString(out.Content)

	log.Info("writing operations", zap.String("file", gOpts.Filename), zap.Int("docs", len(docs)))
	f, err := gen.Context(ctx).Open(gOpts.Filename)
	if err != nil {
		return
	}
	defer f.Close()

	_, err = g.WriteTo(f)
	return
}
