package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unientropy/graphql-codegen-typescript-plugin/gen"
	"github.com/unientropy/graphql-codegen-typescript-plugin/plugin"
)

func newMockGenerator(t gomock.TestReporter) *gen.MockGenerator {
	return gen.NewMockGenerator(gomock.NewController(t))
}

func TestCli_Run(t *testing.T) {
	afero.WriteFile(testFs, "/home/graphql/codegen.yml", []byte(`schema: schema.graphql
documents: docs/users.graphql
config:
  namingConvention: keep
generates:
  /out/config/api.ts:
    plugins: [mock]
`), 0644)

	testCases := []struct {
		Name   string
		Args   []string
		expect func(g *gen.MockGenerator)
	}{
		{
			Name: "Single",
			Args: []string{"gqlc-apollo", "-s", "/home/graphql/schema.graphql", "--mock_out", "/out", "/home/graphql/docs/users.graphql"},
			expect: func(g *gen.MockGenerator) {
				g.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Len(1), map[string]interface{}{}).Return(nil)
			},
		},
		{
			Name: "MultiWithImports",
			Args: []string{"gqlc-apollo", "-I", "/usr/imports", "-I", "/home/graphql", "-s", "schema.graphql", "--mock_out=/out", "docs/users.graphql", "docs/mutations.graphql"},
			expect: func(g *gen.MockGenerator) {
				g.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Len(2), gomock.Any()).Return(nil)
			},
		},
		{
			Name: "Glob",
			Args: []string{"gqlc-apollo", "-I=/home/graphql", "-s", "schema.graphql", "--mock_out", "/out", "docs/*.graphql"},
			expect: func(g *gen.MockGenerator) {
				g.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Len(2), gomock.Any()).Return(nil)
			},
		},
		{
			Name: "WithOpts",
			Args: []string{"gqlc-apollo", "-s", "/home/graphql/schema.graphql", "--mock_opt", "namingConvention=keep", "--mock_out", "typesSuffix=Gql:/out", "/home/graphql/docs/users.graphql"},
			expect: func(g *gen.MockGenerator) {
				g.EXPECT().
					Generate(gomock.Any(), gomock.Any(), gomock.Any(), map[string]interface{}{"namingConvention": "keep", "typesSuffix": "Gql"}).
					Return(nil)
			},
		},
		{
			Name: "MultiOut",
			Args: []string{"gqlc-apollo", "-s", "/home/graphql/schema.graphql", "--mock_out", "/out/a", "--mock_out", "/out/b", "/home/graphql/docs/users.graphql"},
			expect: func(g *gen.MockGenerator) {
				g.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)
			},
		},
		{
			Name: "Config",
			Args: []string{"gqlc-apollo", "-I", "/home/graphql", "-c", "/home/graphql/codegen.yml"},
			expect: func(g *gen.MockGenerator) {
				g.EXPECT().
					Generate(gomock.Any(), gomock.Any(), gomock.Len(1), map[string]interface{}{"namingConvention": "keep", "filename": "api.ts"}).
					DoAndReturn(func(ctx context.Context, schema *gen.Schema, docs []*gen.Document, opts map[string]interface{}) error {
						assert.NotNil(t, schema.Query)
						assert.Equal(t, "docs/users.graphql", docs[0].Name())
						return nil
					})
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(subT *testing.T) {
			g := newMockGenerator(subT)
			testCase.expect(g)

			c := NewCLI(WithFS(testFs))
			c.RegisterGenerator(g, "mock_out", "mock_opt", "Test generator")

			require.NoError(subT, c.Run(testCase.Args))
		})
	}
}

func TestCli_RunErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/schema.graphql", schemaGql, 0644)
	afero.WriteFile(fs, "/bad.graphql", []byte("query Bad { nope }"), 0644)
	afero.WriteFile(fs, "/users.graphql", usersGql, 0644)

	errGen := errors.New("generator failed")

	testCases := []struct {
		Name   string
		Args   []string
		expect func(g *gen.MockGenerator)
		Err    string
	}{
		{
			Name: "NoGenerators",
			Args: []string{"gqlc-apollo", "-s", "/schema.graphql", "/users.graphql"},
			Err:  errNoGenerators.Error(),
		},
		{
			Name: "InvalidExtension",
			Args: []string{"gqlc-apollo", "-s", "/schema.graphql", "--mock_out", "/out", "/users.txt"},
			Err:  "gqlc: invalid file extension: /users.txt",
		},
		{
			Name: "NoSchema",
			Args: []string{"gqlc-apollo", "--mock_out", "/out", "/users.graphql"},
			Err:  gen.ErrNoSchema.Error(),
		},
		{
			Name: "InvalidDocument",
			Args: []string{"gqlc-apollo", "-s", "/schema.graphql", "--mock_out", "/out", "/bad.graphql"},
			Err:  `Cannot query field "nope" on type "Query".`,
		},
		{
			Name: "GeneratorError",
			Args: []string{"gqlc-apollo", "-s", "/schema.graphql", "--mock_out", "/out", "/users.graphql"},
			expect: func(g *gen.MockGenerator) {
				g.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errGen)
			},
			Err: errGen.Error(),
		},
		{
			Name: "Panic",
			Args: []string{"gqlc-apollo", "-s", "/schema.graphql", "--mock_out", "/out", "/users.graphql"},
			expect: func(g *gen.MockGenerator) {
				g.EXPECT().
					Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(context.Context, *gen.Schema, []*gen.Document, map[string]interface{}) error {
						panic(errGen)
					})
			},
			Err: "gqlc: recovered from unexpected panic: generator failed",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(subT *testing.T) {
			g := newMockGenerator(subT)
			if testCase.expect != nil {
				testCase.expect(g)
			}

			c := NewCLI(WithFS(fs))
			c.RegisterGenerator(g, "mock_out", "mock_opt", "Test generator")

			err := c.Run(testCase.Args)
			require.Error(subT, err)
			assert.Contains(subT, err.Error(), testCase.Err)
		})
	}
}

func TestCli_RegisterPlugins(t *testing.T) {
	c := NewCLI(WithFS(afero.NewMemMapFs()))
	c.RegisterGenerator(newMockGenerator(t), "mock_out", "mock_opt", "Test generator")
	c.AllowPlugins("gqlc-gen-")

	c.registerPlugins([]string{"-s", "schema.graphql", "--mock_out", "/out", "--ts_out=/out", "--ts_opt", "a=b", "--other", "q.graphql"})

	require.Len(t, c.gens, 2)
	assert.True(t, c.registered("ts_out"))
	assert.Equal(t, "ts_opt", c.gens[1].opt)
	assert.Equal(t, &plugin.Generator{Name: "ts", Prefix: "gqlc-gen-"}, c.gens[1].g)
}

func TestCli_Version(t *testing.T) {
	c := NewCLI()

	var b bytes.Buffer
	cmd := c.newVersionCmd()
	cmd.SetOut(&b)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "gqlc-apollo dev\n", b.String())
}

func TestCli_Help(t *testing.T) {
	c := NewCLI(WithFS(afero.NewMemMapFs()))
	c.RegisterGenerator(newMockGenerator(t), "mock_out", "mock_opt", "Test generator")

	var b bytes.Buffer
	cmd := c.newGqlcCmd(c.gens, c.fs, c.prefix)
	cmd.SetOut(&b)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, b.String(), "Generator Flags:\n      --mock_out [options:]dir")
	assert.Contains(t, b.String(), "Generator Options:\n      --mock_opt options")
	assert.Contains(t, b.String(), "General Flags:")
	assert.Contains(t, b.String(), "-s, --schema strings")
}
