// Package naming converts raw GraphQL names into the identifier
// conventions used by generated type names.
package naming

import (
	"fmt"
	"regexp"
	"strings"
)

// Case functions understood by the "namingConvention" option.
const (
	Keep         = "keep"
	PascalCase   = "pascalCase"
	CamelCase    = "camelCase"
	SnakeCase    = "snakeCase"
	ConstantCase = "constantCase"
	ParamCase    = "paramCase"
	KebabCase    = "kebabCase"
	UpperCase    = "upperCase"
	LowerCase    = "lowerCase"
)

var caseFns = map[string]func(string) string{
	Keep:         func(s string) string { return s },
	PascalCase:   pascalCase,
	CamelCase:    camelCase,
	SnakeCase:    joinWords("_", strings.ToLower),
	ConstantCase: joinWords("_", strings.ToUpper),
	ParamCase:    joinWords("-", strings.ToLower),
	KebabCase:    joinWords("-", strings.ToLower),
	UpperCase:    strings.ToUpper,
	LowerCase:    strings.ToLower,
}

var (
	lowerUpper = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	upperWord  = regexp.MustCompile(`([A-Z])([A-Z][a-z])`)
	nonAlnum   = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// words splits s at case changes and non-alphanumeric runs. An acronym
// ends before the capital that starts the next word, so "getHTMLPage"
// yields "get", "HTML" and "Page". Digits never start a word.
func words(s string) []string {
	s = lowerUpper.ReplaceAllString(s, "$1 $2")
	s = upperWord.ReplaceAllString(s, "$1 $2")
	return strings.Fields(nonAlnum.ReplaceAllString(s, " "))
}

// title upper cases the first letter of w and lower cases the rest.
// A word other than the first which starts with a digit is prefixed
// with an underscore instead, so the digits stay separated.
func title(w string, i int) string {
	first, rest := w[:1], strings.ToLower(w[1:])
	if i > 0 && first[0] >= '0' && first[0] <= '9' {
		return "_" + first + rest
	}
	return strings.ToUpper(first) + rest
}

func pascalCase(s string) string {
	var b strings.Builder
	for i, w := range words(s) {
		b.WriteString(title(w, i))
	}
	return b.String()
}

func camelCase(s string) string {
	var b strings.Builder
	for i, w := range words(s) {
		if i == 0 {
			b.WriteString(strings.ToLower(w))
			continue
		}
		b.WriteString(title(w, i))
	}
	return b.String()
}

func joinWords(sep string, fn func(string) string) func(string) string {
	return func(s string) string {
		ws := words(s)
		for i, w := range ws {
			ws[i] = fn(w)
		}
		return strings.Join(ws, sep)
	}
}

// Config holds the naming options of a generator.
type Config struct {
	// TypeNames is the case function applied to type names.
	// Empty means PascalCase.
	TypeNames string

	// TransformUnderscore converts the name as a whole instead
	// of converting each underscore separated part on its own.
	TransformUnderscore bool

	TypesPrefix string
	TypesSuffix string
}

// FromOptions reads the naming options out of a generator options map.
//
// Recognized keys are "namingConvention", "typesPrefix" and "typesSuffix".
// namingConvention is either a case function name or a map with the
// keys "typeNames" and "transformUnderscore".
func FromOptions(opts map[string]interface{}) (cfg Config, err error) {
	switch v := opts["namingConvention"].(type) {
	case nil:
	case string:
		cfg.TypeNames = v
	case map[string]interface{}:
		if tn, ok := v["typeNames"]; ok {
			s, ok := tn.(string)
			if !ok {
				return cfg, fmt.Errorf("naming: typeNames must be a string, got: %T", tn)
			}
			cfg.TypeNames = s
		}
		if tu, ok := v["transformUnderscore"]; ok {
			b, ok := tu.(bool)
			if !ok {
				return cfg, fmt.Errorf("naming: transformUnderscore must be a boolean, got: %T", tu)
			}
			cfg.TransformUnderscore = b
		}
	default:
		return cfg, fmt.Errorf("naming: unsupported namingConvention: %v", v)
	}

	if cfg.TypesPrefix, err = stringOpt(opts, "typesPrefix"); err != nil {
		return
	}
	cfg.TypesSuffix, err = stringOpt(opts, "typesSuffix")
	return
}

func stringOpt(opts map[string]interface{}, key string) (string, error) {
	v, ok := opts[key]
	if !ok || v == nil {
		return "", nil
	}

	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("naming: %s must be a string, got: %T", key, v)
	}
	return s, nil
}

// Converter converts raw GraphQL names.
type Converter struct {
	cfg     Config
	convert func(string) string
}

// NewConverter returns a Converter for the given config.
func NewConverter(cfg Config) (*Converter, error) {
	fnName := cfg.TypeNames
	if fnName == "" {
		fnName = PascalCase
	}

	// Accept the module#function form, e.g. "change-case-all#pascalCase".
	if i := strings.LastIndexByte(fnName, '#'); i >= 0 {
		fnName = fnName[i+1:]
	}

	fn, ok := caseFns[fnName]
	if !ok {
		return nil, fmt.Errorf("naming: unknown naming convention: %s", cfg.TypeNames)
	}

	c := &Converter{cfg: cfg, convert: fn}
	if fnName != Keep && !cfg.TransformUnderscore {
		c.convert = func(s string) string {
			parts := strings.Split(s, "_")
			for i, p := range parts {
				parts[i] = fn(p)
			}
			return strings.Join(parts, "_")
		}
	}
	return c, nil
}

type options struct {
	prefix bool
	suffix bool
}

// Option configures a single Convert call.
type Option func(*options)

// WithTypesPrefix toggles the configured types prefix.
func WithTypesPrefix(use bool) Option {
	return func(o *options) { o.prefix = use }
}

// WithTypesSuffix toggles the configured types suffix.
func WithTypesSuffix(use bool) Option {
	return func(o *options) { o.suffix = use }
}

// Convert converts name. The types prefix and suffix are applied
// unless disabled.
func (c *Converter) Convert(name string, opts ...Option) string {
	o := options{prefix: true, suffix: true}
	for _, opt := range opts {
		opt(&o)
	}

	var b strings.Builder
	if o.prefix {
		b.WriteString(c.cfg.TypesPrefix)
	}
	b.WriteString(c.convert(name))
	if o.suffix {
		b.WriteString(c.cfg.TypesSuffix)
	}
	return b.String()
}
