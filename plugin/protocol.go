package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/unientropy/graphql-codegen-typescript-plugin/gen"
	"github.com/vektah/gqlparser/v2/ast"
)

// File is a named piece of GraphQL source or generated output.
type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Request is written to a plugin's stdin.
//
// The plugin rebuilds the schema and documents from their sources,
// the same way the compiler did, instead of receiving a serialized AST.
type Request struct {
	// FileToGenerate lists the documents the plugin is expected to generate code for.
	FileToGenerate []string `json:"file_to_generate"`

	// Parameter holds the JSON encoded generator options.
	Parameter string `json:"parameter,omitempty"`

	Schema    []*File `json:"schema"`
	Documents []*File `json:"documents"`

	// SkipValidation is set when the documents were not validated by the compiler.
	SkipValidation bool `json:"skip_validation,omitempty"`
}

// Response is read from a plugin's stdout.
type Response struct {
	// Error is non-empty if the plugin failed to generate.
	Error string `json:"error,omitempty"`

	File []*File `json:"file"`
}

// NewRequest builds a request from a loaded schema and documents.
func NewRequest(schema *gen.Schema, docs []*gen.Document) *Request {
	req := &Request{
		FileToGenerate: make([]string, 0, len(docs)),
		Documents:      make([]*File, 0, len(docs)),
	}

	if schema != nil {
		for _, src := range schema.Sources {
			req.Schema = append(req.Schema, &File{Name: src.Name, Content: src.Input})
		}
	}

	for _, d := range docs {
		req.FileToGenerate = append(req.FileToGenerate, d.Name())
		if d.Source != nil {
			req.Documents = append(req.Documents, &File{Name: d.Source.Name, Content: d.Source.Input})
		}
	}
	return req
}

func sources(files []*File) []*ast.Source {
	srcs := make([]*ast.Source, len(files))
	for i, f := range files {
		srcs[i] = &ast.Source{Name: f.Name, Input: f.Content}
	}
	return srcs
}

// memCtx is a GeneratorContext which keeps every written file in memory.
type memCtx struct {
	files map[string]*bytes.Buffer
}

type memFile struct {
	*bytes.Buffer
}

func (memFile) Close() error { return nil }

func (ctx *memCtx) Open(name string) (io.WriteCloser, error) {
	b, ok := ctx.files[name]
	if !ok {
		b = new(bytes.Buffer)
		ctx.files[name] = b
	}
	return memFile{b}, nil
}

// Serve runs g as a plugin: it reads a Request from in, generates and
// writes a Response to out. Failures to load or generate are reported
// through the Response; only I/O and encoding errors are returned.
func Serve(ctx context.Context, g gen.Generator, in io.Reader, out io.Writer) error {
	var req Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("plugin: malformed request: %w", err)
	}

	resp := generate(ctx, g, &req)
	return json.NewEncoder(out).Encode(resp)
}

func generate(ctx context.Context, g gen.Generator, req *Request) *Response {
	opts := make(map[string]interface{})
	if req.Parameter != "" {
		if err := json.Unmarshal([]byte(req.Parameter), &opts); err != nil {
			return &Response{Error: fmt.Sprintf("plugin: malformed parameter: %s", err)}
		}
	}

	schema, docs, err := gen.Load(sources(req.Schema), sources(req.Documents), req.SkipValidation)
	if err != nil {
		return &Response{Error: err.Error()}
	}

	mem := &memCtx{files: make(map[string]*bytes.Buffer)}
	if err = g.Generate(gen.WithContext(ctx, mem), schema, docs, opts); err != nil {
		return &Response{Error: err.Error()}
	}

	names := make([]string, 0, len(mem.files))
	for name := range mem.files {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := &Response{File: make([]*File, len(names))}
	for i, name := range names {
		resp.File[i] = &File{Name: name, Content: mem.files[name].String()}
	}
	return resp
}
