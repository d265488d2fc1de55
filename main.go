package main

import (
	"fmt"
	"os"

	"github.com/unientropy/graphql-codegen-typescript-plugin/apollo"
	"github.com/unientropy/graphql-codegen-typescript-plugin/cmd"
)

var cli *cmd.CommandLine

func init() {
	cli = cmd.NewCLI()
	cli.AllowPlugins("gqlc-gen-")

	// Register Apollo operations generator
	cli.RegisterGenerator(new(apollo.Generator), "apollo_out", "apollo_opt",
		"Generate TypeScript Apollo client wrappers for queries and mutations.")
}

func main() {
	if err := cli.Run(os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
