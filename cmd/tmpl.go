package cmd

import (
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// usageTmpl splits the flags of the root command into the generator
// output flags (*_out), their option flags (*_opt) and everything else.
const usageTmpl = `Usage:
  gqlc-apollo [flags] documents...
  gqlc-apollo [command]{{if .HasAvailableSubCommands}}

Available Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{$outs := suffixed .LocalFlags "_out"}}{{if gt (len $outs.FlagUsages) 0}}

Generator Flags:
{{$outs.FlagUsages | trimTrailingWhitespaces}}{{end}}{{$opts := suffixed .LocalFlags "_opt"}}{{if gt (len $opts.FlagUsages) 0}}

Generator Options:
{{$opts.FlagUsages | trimTrailingWhitespaces}}{{end}}{{$general := unsuffixed .LocalFlags "_out" "_opt"}}{{if gt (len $general.FlagUsages) 0}}

General Flags:
{{$general.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasExample}}

Example:
  {{.Example}}{{end}}
`

// filterFlags returns the flags of set whose name has one of
// the suffixes, or, if keep is false, none of them.
func filterFlags(set *pflag.FlagSet, keep bool, suffixes ...string) *pflag.FlagSet {
	fs := new(pflag.FlagSet)
	set.VisitAll(func(flag *pflag.Flag) {
		matched := false
		for _, s := range suffixes {
			if strings.HasSuffix(flag.Name, s) {
				matched = true
				break
			}
		}

		if matched == keep {
			fs.AddFlag(flag)
		}
	})
	return fs
}

func init() {
	cobra.AddTemplateFuncs(template.FuncMap{
		"suffixed": func(set *pflag.FlagSet, suffixes ...string) *pflag.FlagSet {
			return filterFlags(set, true, suffixes...)
		},
		"unsuffixed": func(set *pflag.FlagSet, suffixes ...string) *pflag.FlagSet {
			return filterFlags(set, false, suffixes...)
		},
	})
}
