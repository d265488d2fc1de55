package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unientropy/graphql-codegen-typescript-plugin/apollo"
	"github.com/unientropy/graphql-codegen-typescript-plugin/gen"
)

type goldenSuite struct {
	name string
	args []string
	out  string
	ex   func() []byte
}

func newApolloCLI(fs afero.Fs) *CommandLine {
	c := NewCLI(WithFS(fs))
	c.RegisterGenerator(new(apollo.Generator), "apollo_out", "apollo_opt", "Generate TypeScript Apollo client wrappers.")
	return c
}

func TestCli_Apollo(t *testing.T) {
	fs := afero.NewCopyOnWriteFs(testFs, afero.NewMemMapFs())
	afero.WriteFile(fs, "/home/graphql/codegen.yml", []byte(`schema: /home/graphql/schema.graphql
documents:
  - /home/graphql/docs/users.graphql
  - /home/graphql/docs/mutations.graphql
generates:
  /out/config/operations.ts:
    plugins: apollo
  /out/config/twice.ts:
    plugins: [apollo, apollo]
`), 0644)

	goldens := []goldenSuite{
		{
			name: "Flags",
			args: []string{"gqlc-apollo", "-s", "/home/graphql/schema.graphql", "--apollo_out", "/out/flags", "/home/graphql/docs/users.graphql", "/home/graphql/docs/mutations.graphql"},
			out:  "/out/flags/operations.ts",
			ex:   func() []byte { return operationsTs },
		},
		{
			name: "Filename",
			args: []string{"gqlc-apollo", "-I", "/home/graphql", "-s", "schema.graphql", "--apollo_opt", `filename="api.ts"`, "--apollo_out", "/out/named", "docs/users.graphql", "docs/mutations.graphql"},
			out:  "/out/named/api.ts",
			ex:   func() []byte { return operationsTs },
		},
		{
			name: "Config",
			args: []string{"gqlc-apollo", "--config", "/home/graphql/codegen.yml"},
			out:  "/out/config/operations.ts",
			ex:   func() []byte { return operationsTs },
		},
		{
			name: "ConfigAppend",
			args: []string{"gqlc-apollo", "--config", "/home/graphql/codegen.yml"},
			out:  "/out/config/twice.ts",
			ex:   func() []byte { return bytes.Repeat(operationsTs, 2) },
		},
	}

	for _, suite := range goldens {
		t.Run(suite.name, func(subT *testing.T) {
			require.NoError(subT, newApolloCLI(fs).Run(suite.args))

			out, err := afero.ReadFile(fs, suite.out)
			require.NoError(subT, err)
			gen.CompareBytes(subT, suite.ex(), out)
		})
	}
}

func TestCli_ApolloRerun(t *testing.T) {
	fs := afero.NewCopyOnWriteFs(testFs, afero.NewMemMapFs())
	args := []string{"gqlc-apollo", "-s", "/home/graphql/schema.graphql", "--apollo_out", "/out", "/home/graphql/docs/users.graphql", "/home/graphql/docs/mutations.graphql"}

	c := newApolloCLI(fs)
	require.NoError(t, c.Run(args))
	require.NoError(t, c.Run(args))

	out, err := afero.ReadFile(fs, "/out/operations.ts")
	require.NoError(t, err)
	assert.Equal(t, string(operationsTs), string(out))
}

func TestCli_ApolloInvalidNaming(t *testing.T) {
	fs := afero.NewCopyOnWriteFs(testFs, afero.NewMemMapFs())
	args := []string{"gqlc-apollo", "-s", "/home/graphql/schema.graphql", "--apollo_out", "namingConvention=nope:/out", "/home/graphql/docs/users.graphql"}

	err := newApolloCLI(fs).Run(args)
	require.Error(t, err)

	var gerr gen.GeneratorError
	assert.ErrorAs(t, err, &gerr)
}
