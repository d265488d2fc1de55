// gqlc-gen-apollo runs the Apollo operations generator as a gqlc plugin.
// It reads a request from stdin and writes the response to stdout.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/unientropy/graphql-codegen-typescript-plugin/apollo"
	"github.com/unientropy/graphql-codegen-typescript-plugin/plugin"
)

func main() {
	if err := plugin.Serve(context.Background(), new(apollo.Generator), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
