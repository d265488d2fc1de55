package cmd

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/unientropy/graphql-codegen-typescript-plugin/gen"
)

// headerFlag represents a flag for setting HTTP headers
// Any repeats will not override. They will append.
//
// format: a=1,b=2
type headerFlag struct {
	value   *http.Header
	changed bool
}

func (*headerFlag) String() string { return "" }

func (*headerFlag) Type() string { return "key=value" }

func (f *headerFlag) Set(val string) error {
	var ss []string
	n := strings.Count(val, "=")
	switch n {
	case 0:
		return fmt.Errorf("%s must be formatted as key=value", val)
	case 1:
		ss = append(ss, strings.Trim(val, `"`))
	default:
		r := csv.NewReader(strings.NewReader(val))
		var err error
		ss, err = r.Read()
		if err != nil {
			return err
		}
	}

	if *f.value == nil || !f.changed {
		*f.value = make(http.Header, len(ss))
	}
	for _, pair := range ss {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("%s must be formatted as key=value", pair)
		}
		f.value.Add(kv[0], strings.Trim(kv[1], `"`))
	}
	f.changed = true
	return nil
}

// generator is a generator to run along with its options and output directory.
type generator struct {
	gen.Generator

	name   string
	opts   map[string]interface{}
	outDir string
}

// genFlag represents a Generator flag: *_out, or its options flag: *_opt
//
// format: [key=value,...:]outdir
type genFlag struct {
	g    gen.Generator
	name string
	opts map[string]interface{}

	geners  *[]generator
	outDirs *[]string
	fp      *fparser

	isOpt bool
}

func (genFlag) String() string { return "" }

func (f genFlag) Type() string {
	if f.isOpt {
		return "options"
	}
	return "[options:]dir"
}

func (f genFlag) Set(arg string) (err error) {
	f.fp.Init(strings.NewReader(arg))
	f.fp.Filename = f.name
	if f.isOpt {
		return f.fp.parse(parseArg, nil, f.opts)
	}

	outDir := new(string)
	err = f.fp.parse(parseArg, outDir, f.opts)
	if err != nil {
		return err
	}

	if *outDir == "" {
		*outDir = "."
	}
	*outDir = filepath.Clean(*outDir)

	*f.outDirs = append(*f.outDirs, *outDir)
	*f.geners = append(*f.geners, generator{Generator: f.g, name: f.name, opts: f.opts, outDir: *outDir})
	return
}

type stateFn func(*fparser, *string, map[string]interface{}) stateFn

type fparser struct {
	*scanner.Scanner
}

func (p *fparser) errorf(format string, args ...interface{}) { panic(fmt.Errorf(format, args...)) }

func (p *fparser) error(err error) { panic(err) }

func (p *fparser) recover(err *error) {
	e := recover()
	if e != nil {
		*err = e.(error)
	}
}

func (p *fparser) parse(root stateFn, dir *string, opts map[string]interface{}) (err error) {
	defer p.recover(&err)

	for state := root; state != nil; {
		state = state(p, dir, opts)
	}
	return
}

func parseArg(p *fparser, dir *string, opts map[string]interface{}) stateFn {
	switch t := p.Scan(); t {
	case os.PathSeparator:
		*dir += string(os.PathSeparator)
		return parseDir(p, dir)
	case '.':
		t = p.Peek()
		if t == '.' || t == '/' {
			*dir += p.TokenText()
			return parseDir(p, dir)
		}

		*dir = "."
		return nil
	}

	key := p.TokenText()

	switch tt := p.Scan(); tt {
	case ':':
		fallthrough
	case ',':
		opts[key] = true
		return parseArg
	case '=':
		return parseValue(key)
	case os.PathSeparator:
		*dir = *dir + key + string(os.PathSeparator)
		return parseDir(p, dir)
	case scanner.EOF:
		if dir != nil {
			*dir = key
			return nil
		}
		if key != "" {
			opts[key] = true
		}
	default:
		if dir != nil {
			*dir = *dir + key + p.TokenText()
			return parseDir(p, dir)
		}
	}

	return nil
}

func parseValue(key string) stateFn {
	return func(p *fparser, dir *string, opts map[string]interface{}) stateFn {
		var val interface{}
		tt := p.Scan()
		valStr := p.TokenText()

		var err error
		switch tt {
		case scanner.Int:
			val, err = strconv.ParseInt(valStr, 10, 64)
		case scanner.Float:
			val, err = strconv.ParseFloat(valStr, 64)
		case scanner.Ident:
			if valStr == "true" || valStr == "false" {
				val = valStr == "true"
				break
			}
			val = valStr
		case scanner.String, scanner.RawString:
			val, err = strconv.Unquote(valStr)
		default:
			p.errorf("gqlc: unexpected character in generator option, %s, value: %s", key, string(tt))
		}
		if err != nil {
			p.error(err)
		}

		addOpt(opts, key, val)
		if t := p.Scan(); t == ':' {
			return parseDir(p, dir)
		}

		return parseArg
	}
}

// addOpt sets key to val. Repeating a key collects its values into a slice.
func addOpt(opts map[string]interface{}, key string, val interface{}) {
	old, ok := opts[key]
	if !ok {
		opts[key] = val
		return
	}

	switch v := val.(type) {
	case int64:
		if s, isS := old.([]int64); isS {
			opts[key] = append(s, v)
			return
		}
		opts[key] = []int64{old.(int64), v}
	case float64:
		if s, isS := old.([]float64); isS {
			opts[key] = append(s, v)
			return
		}
		opts[key] = []float64{old.(float64), v}
	case bool:
		if s, isS := old.([]bool); isS {
			opts[key] = append(s, v)
			return
		}
		opts[key] = []bool{old.(bool), v}
	case string:
		if s, isS := old.([]string); isS {
			opts[key] = append(s, v)
			return
		}
		opts[key] = []string{old.(string), v}
	}
}

func parseDir(p *fparser, dir *string) stateFn {
	for t := p.Scan(); t != scanner.EOF; {
		*dir += p.TokenText()
		t = p.Scan()
	}
	return nil
}
