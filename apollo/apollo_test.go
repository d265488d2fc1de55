package apollo

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/unientropy/graphql-codegen-typescript-plugin/gen"
	"github.com/unientropy/graphql-codegen-typescript-plugin/naming"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var update = flag.Bool("update", false, "Update expected output file")

func parseDocs(t *testing.T, srcs ...string) []*gen.Document {
	t.Helper()

	sources := make([]*ast.Source, len(srcs))
	for i, s := range srcs {
		sources[i] = &ast.Source{Name: "doc" + string(rune('a'+i)) + ".graphql", Input: s}
	}

	docs, err := gen.ParseDocuments(sources...)
	if err != nil {
		t.Fatal(err)
	}
	return docs
}

func TestPreamble(t *testing.T) {
	p := Preamble()
	if len(p) != 4 {
		t.Fatalf("expected 4 statements, got: %d", len(p))
	}

	// Callers must not be able to alter the preamble of later runs.
	p[0] = ""
	if Preamble()[0] == "" {
		t.Fail()
	}
}

func TestPlugin_NoOperations(t *testing.T) {
	docs := parseDocs(t, `subscription OnUser { user { id } }

fragment F on User { id }`)

	out, err := Plugin(nil, docs, naming.Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if out.Content != "" {
		t.Errorf("expected empty content, got: %q", out.Content)
	}
	gen.CompareBytes(t, []byte(strings.Join(Preamble(), "\n")), []byte(strings.Join(out.Prepend, "\n")))
}

func TestPlugin_Query(t *testing.T) {
	docs := parseDocs(t, `query GetUser { user { id name } }`)

	out, err := Plugin(nil, docs, naming.Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	ex := "\nexport const GetUser = async<T = any>(input: { \n" +
		"  client?: ApolloClient<T>,\n" +
		"  options?: Omit<QueryOptions, 'query' | 'variables'> \n" +
		"} = {}) => {\n" +
		"  return (\n" +
		"    await (input.client || __client).query<GetUserQuery, GetUserQueryVariables>({\n" +
		"      query: GetUserDocument,\n" +
		"      ...input.options\n" +
		"    })\n" +
		"  ).data?.user;\n" +
		"};\n"
	gen.CompareBytes(t, []byte(ex), []byte(out.Content))
}

func TestPlugin_Mutation(t *testing.T) {
	docs := parseDocs(t, `mutation UpdateUser($id: ID!) {
  updateUser(id: $id) { id }
  touch
}`)

	out, err := Plugin(nil, docs, naming.Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	ex := "\nexport const UpdateUser = async <T = any>(input: { \n" +
		"  client?: ApolloClient<T>,\n" +
		"  options?: Omit<MutationOptions, 'mutation' | 'variables'>,\n" +
		"  variables: UpdateUserMutationVariables \n" +
		"}) => {\n" +
		"  return (\n" +
		"    await (input.client || __client).mutate<UpdateUserMutation, UpdateUserMutationVariables>({\n" +
		"      mutation: UpdateUserDocument,\n" +
		"      ...input.options,\n" +
		"      variables: input.variables\n" +
		"    })\n" +
		"  ).data;\n" +
		"};\n"
	gen.CompareBytes(t, []byte(ex), []byte(out.Content))
}

func TestPlugin_Order(t *testing.T) {
	docs := parseDocs(t,
		`query B { b } query A { a }`,
		`mutation C($x: Int) { c(x: $x) }`,
	)
	conv, err := naming.NewConverter(naming.Config{})
	if err != nil {
		t.Fatal(err)
	}

	var units []string
	for _, d := range docs {
		for _, op := range d.Operations {
			u, err := emit(conv, op)
			if err != nil {
				t.Fatal(err)
			}
			units = append(units, u.Text)
		}
	}

	out, err := Plugin(nil, docs, naming.Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	gen.CompareBytes(t, []byte(strings.Join(units, "\n")), []byte(out.Content))
	if !(strings.Index(out.Content, "const B ") < strings.Index(out.Content, "const A ") &&
		strings.Index(out.Content, "const A ") < strings.Index(out.Content, "const C ")) {
		t.Errorf("units out of order:\n%s", out.Content)
	}
}

func TestPlugin_Idempotent(t *testing.T) {
	docs := parseDocs(t, `query A { a } mutation B($v: Int) { b(v: $v) c }`)

	first, err := Plugin(nil, docs, naming.Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Plugin(nil, docs, naming.Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	gen.CompareBytes(t, []byte(first.Content), []byte(second.Content))
}

func TestEmit(t *testing.T) {
	conv, err := naming.NewConverter(naming.Config{TypesPrefix: "I", TypesSuffix: "Type"})
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		Name     string
		Src      string
		TypeName string
		DataName string
		Vars     bool
	}{
		{
			Name:     "SingleField",
			Src:      `query getUser { user { id } }`,
			TypeName: "GetUser",
			DataName: "data?.user",
		},
		{
			Name:     "Acronym",
			Src:      `query listAPIKeys { keys { id } }`,
			TypeName: "ListApiKeys",
			DataName: "data?.keys",
		},
		{
			Name:     "Aliased",
			Src:      `query Me { me: viewer { id } }`,
			TypeName: "Me",
			DataName: "data?.viewer",
		},
		{
			Name:     "FragmentSpread",
			Src:      `query Frag { ...Root }`,
			TypeName: "Frag",
			DataName: "data?.Root",
		},
		{
			Name:     "ManyFields",
			Src:      `query Many($a: Int, $b: Int) { a(v: $a) b(v: $b) }`,
			TypeName: "Many",
			DataName: "data",
			Vars:     true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(subT *testing.T) {
			op := parseDocs(subT, testCase.Src)[0].Operations[0]

			u, err := emit(conv, op)
			if err != nil {
				subT.Fatal(err)
			}

			if u.TypeName != testCase.TypeName {
				subT.Errorf("type name: expected %s, got %s", testCase.TypeName, u.TypeName)
			}
			for _, ref := range []string{testCase.TypeName + "Query", testCase.TypeName + "Document"} {
				if !strings.Contains(u.Text, ref) {
					subT.Errorf("expected %s in:\n%s", ref, u.Text)
				}
			}
			if u.DataName != testCase.DataName {
				subT.Errorf("data name: expected %s, got %s", testCase.DataName, u.DataName)
			}
			if u.HasVariables != testCase.Vars {
				subT.Errorf("variables: expected %v, got %v", testCase.Vars, u.HasVariables)
			}
			if !strings.HasSuffix(u.Text, ")."+testCase.DataName+";\n};\n") {
				subT.Errorf("unexpected return expression:\n%s", u.Text)
			}

			hasDefault := strings.Contains(u.Text, "} = {}) => {")
			hasVarsEntry := strings.Contains(u.Text, "variables: input.variables")
			if hasDefault == testCase.Vars || hasVarsEntry != testCase.Vars {
				subT.Errorf("input shape does not match variables:\n%s", u.Text)
			}
		})
	}
}

func TestEmit_Errors(t *testing.T) {
	conv, err := naming.NewConverter(naming.Config{})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("EmptySelectionSet", func(subT *testing.T) {
		_, err := emit(conv, &ast.OperationDefinition{Operation: ast.Query, Name: "Empty"})
		if !errors.Is(err, ErrEmptySelectionSet) {
			subT.Errorf("expected empty selection set error, got: %v", err)
		}
	})

	t.Run("Anonymous", func(subT *testing.T) {
		op := parseDocs(subT, `{ user { id } }`)[0].Operations[0]

		_, err := emit(conv, op)
		if err == nil {
			subT.Fail()
		}
	})

	t.Run("LoneInlineFragment", func(subT *testing.T) {
		op := parseDocs(subT, `query Inline { ... on Query { a } }`)[0].Operations[0]

		_, err := emit(conv, op)
		if err == nil {
			subT.Fail()
		}
	})

	t.Run("SkipsSubscription", func(subT *testing.T) {
		u, err := emit(conv, &ast.OperationDefinition{Operation: ast.Subscription, Name: "Sub"})
		if u != nil || err != nil {
			subT.Errorf("expected skip, got: %v, %v", u, err)
		}
	})
}

func TestPlugin_WarnsOnSkip(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	docs := parseDocs(t, `subscription OnUser { user { id } } query Q { q }`)

	_, err := Plugin(nil, docs, naming.Config{}, &Info{Logger: zap.New(core)})
	if err != nil {
		t.Fatal(err)
	}

	entries := logs.FilterMessage("skipping unsupported operation").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got: %d", len(entries))
	}
	if entries[0].ContextMap()["operation"] != "OnUser" {
		t.Errorf("unexpected warning fields: %v", entries[0].ContextMap())
	}
}

func loadTestdata(t *testing.T) (*gen.Schema, []*gen.Document) {
	t.Helper()

	read := func(name string) *ast.Source {
		b, err := os.ReadFile(filepath.Join("testdata", name))
		if err != nil {
			t.Fatal(err)
		}
		return &ast.Source{Name: name, Input: string(b)}
	}

	schema, docs, err := gen.Load(
		[]*ast.Source{read("schema.graphql")},
		[]*ast.Source{read("users.graphql"), read("mutations.graphql")},
		false,
	)
	if err != nil {
		t.Fatal(err)
	}
	return schema, docs
}

func TestGenerator_Generate(t *testing.T) {
	schema, docs := loadTestdata(t)
	exFile := filepath.Join("testdata", DefaultFilename)

	var b bytes.Buffer
	g := new(Generator)
	ctx := gen.WithContext(context.Background(), gen.TestCtx{Writer: &b})
	if err := g.Generate(ctx, schema, docs, nil); err != nil {
		t.Fatal(err)
	}

	if *update {
		t.Logf("updating expected output file: %s", exFile)
		if err := os.WriteFile(exFile, b.Bytes(), 0644); err != nil {
			t.Fatal(err)
		}
		return
	}

	ex, err := os.ReadFile(exFile)
	if err != nil {
		t.Fatal(err)
	}
	gen.CompareBytes(t, ex, b.Bytes())
}

type nameCtx struct {
	gen.TestCtx

	name string
}

func (ctx *nameCtx) Open(filename string) (w io.WriteCloser, err error) {
	ctx.name = filename
	return ctx.TestCtx.Open(filename)
}

func TestGenerator_Options(t *testing.T) {
	schema, docs := loadTestdata(t)

	t.Run("Filename", func(subT *testing.T) {
		var b bytes.Buffer
		gCtx := &nameCtx{TestCtx: gen.TestCtx{Writer: &b}}

		err := new(Generator).Generate(gen.WithContext(context.Background(), gCtx), schema, docs, map[string]interface{}{
			"filename":         "api.ts",
			"namingConvention": "keep",
		})
		if err != nil {
			subT.Fatal(err)
		}

		if gCtx.name != "api.ts" {
			subT.Errorf("expected api.ts, got: %s", gCtx.name)
		}
		if !strings.Contains(b.String(), "mutate<touchMutation, touchMutationVariables>") {
			subT.Errorf("naming convention not applied:\n%s", b.String())
		}
	})

	t.Run("Invalid", func(subT *testing.T) {
		err := new(Generator).Generate(context.Background(), schema, docs, map[string]interface{}{
			"namingConvention": "titleCase",
		})

		var gerr gen.GeneratorError
		if !errors.As(err, &gerr) {
			subT.Fatalf("expected generator error, got: %v", err)
		}
		if gerr.GenName != "apollo" || gerr.DocName != DefaultFilename {
			subT.Errorf("unexpected error: %v", gerr)
		}
	})
}
