package apollo

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

var preamble = [...]string{
	"import { ApolloClient } from '@apollo/client';",
	"import { MutationOptions, QueryOptions } from '@apollo/client/core/watchQueryOptions';",
	"let __client: ApolloClient<any>;",
	"export const setDefaultApolloClient = <T = any>(client: ApolloClient<T>) => { __client = client; }",
}

// Preamble returns the statements every generated file starts with:
// the client and options imports, the module scoped default client
// and its setter.
func Preamble() []string {
	p := make([]string, len(preamble))
	copy(p, preamble[:])
	return p
}

// template describes how one operation kind is rendered.
type template struct {
	// async is the arrow function head, spacing differs between kinds
	async string

	// options is the Apollo options type accepted by the wrapper
	options string

	// key is the options key bound to the document
	key string

	// method is the client method invoked
	method string

	// result is the suffix of the generated result type name
	result string
}

var templates = map[ast.Operation]template{
	ast.Query: {
		async:   "async<T = any>",
		options: "QueryOptions",
		key:     "query",
		method:  "query",
		result:  "Query",
	},
	ast.Mutation: {
		async:   "async <T = any>",
		options: "MutationOptions",
		key:     "mutation",
		method:  "mutate",
		result:  "Mutation",
	},
}

func (t template) render(u *Unit) string {
	var b strings.Builder
	b.Grow(512)

	b.WriteString("\nexport const ")
	b.WriteString(u.Name)
	b.WriteString(" = ")
	b.WriteString(t.async)
	b.WriteByte('(')
	t.writeInput(&b, u)
	b.WriteString(") => {\n")

	b.WriteString("  return (\n")
	b.WriteString("    await (input.client || __client).")
	b.WriteString(t.method)
	b.WriteByte('<')
	b.WriteString(u.TypeName)
	b.WriteString(t.result)
	b.WriteString(", ")
	b.WriteString(u.TypeName)
	b.WriteString(t.result)
	b.WriteString("Variables>({\n")

	b.WriteString("      ")
	b.WriteString(t.key)
	b.WriteString(": ")
	b.WriteString(u.TypeName)
	b.WriteString("Document,\n")
	b.WriteString("      ...input.options")
	if u.HasVariables {
		b.WriteString(",\n      variables: input.variables")
	}
	b.WriteByte('\n')

	b.WriteString("    })\n")
	b.WriteString("  ).")
	b.WriteString(u.DataName)
	b.WriteString(";\n")
	b.WriteString("};\n")
	return b.String()
}

// writeInput writes the wrapper's single parameter. Without variables
// the parameter defaults to an empty object so it may be omitted.
// The trailing spaces are part of the output.
func (t template) writeInput(b *strings.Builder, u *Unit) {
	b.WriteString("input: { \n")
	b.WriteString("  client?: ApolloClient<T>,\n")
	b.WriteString("  options?: Omit<")
	b.WriteString(t.options)
	b.WriteString(", '")
	b.WriteString(t.key)
	b.WriteString("' | 'variables'>")
	if u.HasVariables {
		b.WriteString(",\n  variables: ")
		b.WriteString(u.TypeName)
		b.WriteString(t.result)
		b.WriteString("Variables")
	}
	b.WriteString(" \n}")
	if !u.HasVariables {
		b.WriteString(" = {}")
	}
}
