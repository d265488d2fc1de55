// convert.go contains a converter from JSON introspection results to SDL.

package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

type inputValue struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	DefaultValue *string `json:"defaultValue"`
	Type         *typ    `json:"type"`
}

type field struct {
	Name              string        `json:"name"`
	Description       string        `json:"description"`
	Args              []*inputValue `json:"args"`
	Type              *typ          `json:"type"`
	IsDeprecated      bool          `json:"isDeprecated"`
	DeprecationReason string        `json:"deprecationReason"`
}

type enum struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	IsDeprecated      bool   `json:"isDeprecated"`
	DeprecationReason string `json:"deprecationReason"`
}

type typ struct {
	Kind          string        `json:"kind"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	OfType        *typ          `json:"ofType"`
	Fields        []*field      `json:"fields"`
	Interfaces    []*typ        `json:"interfaces"`
	PossibleTypes []*typ        `json:"possibleTypes"`
	EnumValues    []*enum       `json:"enumValues"`
	InputFields   []*inputValue `json:"inputFields"`
}

type directive struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Locations    []string      `json:"locations"`
	IsRepeatable bool          `json:"isRepeatable"`
	Args         []*inputValue `json:"args"`
}

type namedTyp struct {
	Name string `json:"name"`
}

type introspection struct {
	Schema *struct {
		QueryType        *namedTyp    `json:"queryType"`
		MutationType     *namedTyp    `json:"mutationType"`
		SubscriptionType *namedTyp    `json:"subscriptionType"`
		Types            []*typ       `json:"types"`
		Directives       []*directive `json:"directives"`
	} `json:"__schema"`
}

var errNoSchema = errors.New("introspection result is missing the \"__schema\" field")

// toSDL converts the data of an introspection query result into SDL.
// A full response, i.e. {"data": {"__schema": ...}}, is also accepted.
func toSDL(data []byte) ([]byte, error) {
	var resp gqlResp
	if err := json.Unmarshal(data, &resp); err == nil && len(resp.Data) > 0 {
		if err = resp.err(); err != nil {
			return nil, err
		}
		data = resp.Data
	}

	var in introspection
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	s := in.Schema
	if s == nil {
		return nil, errNoSchema
	}

	var b bytes.Buffer
	writeSchemaDef(&b, s.QueryType, s.MutationType, s.SubscriptionType)

	for _, d := range s.Directives {
		if isBuiltinDirective(d.Name) {
			continue
		}
		writeDescr(&b, d.Description, "")
		writeDirective(&b, d)
		b.WriteString("\n\n")
	}

	for _, t := range s.Types {
		if strings.HasPrefix(t.Name, "__") || isBuiltinType(t.Name) {
			continue
		}
		writeDescr(&b, t.Description, "")
		writeTyp(&b, t)
		b.WriteString("\n\n")
	}

	return bytes.TrimRight(b.Bytes(), "\n"), nil
}

// writeSchemaDef writes a schema definition if any root
// operation type deviates from its default name.
func writeSchemaDef(b *bytes.Buffer, query, mutation, subscription *namedTyp) {
	roots := []struct {
		op, def string
		t       *namedTyp
	}{
		{"query", "Query", query},
		{"mutation", "Mutation", mutation},
		{"subscription", "Subscription", subscription},
	}

	custom := false
	for _, r := range roots {
		if r.t != nil && r.t.Name != r.def {
			custom = true
		}
	}
	if !custom {
		return
	}

	b.WriteString("schema {\n")
	for _, r := range roots {
		if r.t == nil {
			continue
		}
		b.WriteString("  ")
		b.WriteString(r.op)
		b.WriteString(": ")
		b.WriteString(r.t.Name)
		b.WriteByte('\n')
	}
	b.WriteString("}\n\n")
}

func writeDirective(b *bytes.Buffer, d *directive) {
	b.WriteString("directive @")
	b.WriteString(d.Name)

	if len(d.Args) > 0 {
		b.WriteString("(\n")
		writeInputVals(b, d.Args, "  ")
		b.WriteString(")")
	}

	if d.IsRepeatable {
		b.WriteString(" repeatable")
	}

	b.WriteString(" on ")
	b.WriteString(strings.Join(d.Locations, " | "))
}

// writeDescr writes descr as a block string.
func writeDescr(b *bytes.Buffer, descr, indent string) {
	if descr == "" {
		return
	}

	b.WriteString(indent)
	b.WriteString(`"""`)
	b.WriteString(strings.ReplaceAll(descr, `"""`, `\"""`))
	b.WriteString(`"""`)
	b.WriteByte('\n')
}

func writeDeprecated(b *bytes.Buffer, reason string) {
	b.WriteString(" @deprecated")
	if reason == "" {
		return
	}

	r, _ := json.Marshal(reason)
	b.WriteString("(reason: ")
	b.Write(r)
	b.WriteString(")")
}

const (
	scalarKind      = "SCALAR"
	objectKind      = "OBJECT"
	interfaceKind   = "INTERFACE"
	unionKind       = "UNION"
	enumKind        = "ENUM"
	inputObjectKind = "INPUT_OBJECT"
	listKind        = "LIST"
	nonNullKind     = "NON_NULL"
)

func writeTyp(b *bytes.Buffer, t *typ) {
	switch t.Kind {
	case scalarKind:
		b.WriteString("scalar ")
		b.WriteString(t.Name)
	case objectKind, interfaceKind:
		if t.Kind == objectKind {
			b.WriteString("type ")
		} else {
			b.WriteString("interface ")
		}
		b.WriteString(t.Name)

		if len(t.Interfaces) > 0 {
			b.WriteString(" implements ")
			for i, it := range t.Interfaces {
				if i > 0 {
					b.WriteString(" & ")
				}
				b.WriteString(it.Name)
			}
		}

		b.WriteString(" {\n")
		writeFields(b, t.Fields)
		b.WriteString("}")
	case unionKind:
		b.WriteString("union ")
		b.WriteString(t.Name)
		b.WriteString(" = ")

		for i, m := range t.PossibleTypes {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(m.Name)
		}
	case enumKind:
		b.WriteString("enum ")
		b.WriteString(t.Name)
		b.WriteString(" {\n")

		for _, v := range t.EnumValues {
			writeDescr(b, v.Description, "  ")
			b.WriteString("  ")
			b.WriteString(v.Name)
			if v.IsDeprecated {
				writeDeprecated(b, v.DeprecationReason)
			}
			b.WriteByte('\n')
		}

		b.WriteString("}")
	case inputObjectKind:
		b.WriteString("input ")
		b.WriteString(t.Name)
		b.WriteString(" {\n")
		writeInputVals(b, t.InputFields, "  ")
		b.WriteString("}")
	}
}

func writeFields(b *bytes.Buffer, fields []*field) {
	for _, f := range fields {
		writeDescr(b, f.Description, "  ")
		b.WriteString("  ")
		b.WriteString(f.Name)

		if len(f.Args) > 0 {
			b.WriteString("(\n")
			writeInputVals(b, f.Args, "    ")
			b.WriteString("  )")
		}
		b.WriteString(": ")
		writeTypSig(b, f.Type)

		if f.IsDeprecated {
			writeDeprecated(b, f.DeprecationReason)
		}
		b.WriteByte('\n')
	}
}

func writeInputVals(b *bytes.Buffer, args []*inputValue, indent string) {
	for _, a := range args {
		writeDescr(b, a.Description, indent)
		b.WriteString(indent)
		b.WriteString(a.Name)
		b.WriteString(": ")
		writeTypSig(b, a.Type)

		if a.DefaultValue != nil {
			b.WriteString(" = ")
			b.WriteString(*a.DefaultValue)
		}
		b.WriteByte('\n')
	}
}

func writeTypSig(b *bytes.Buffer, t *typ) {
	switch t.Kind {
	case nonNullKind:
		writeTypSig(b, t.OfType)
		b.WriteString("!")
	case listKind:
		b.WriteString("[")
		writeTypSig(b, t.OfType)
		b.WriteString("]")
	default:
		b.WriteString(t.Name)
	}
}

func isBuiltinType(name string) bool {
	switch name {
	case "ID", "Int", "Float", "String", "Boolean":
		return true
	}
	return false
}

func isBuiltinDirective(name string) bool {
	switch name {
	case "skip", "include", "deprecated", "specifiedBy", "defer", "oneOf":
		return true
	}
	return false
}
