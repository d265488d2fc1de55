package gen

import (
	"errors"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

// ErrNoSchema is returned when no schema sources are given.
var ErrNoSchema = errors.New("gqlc: no schema sources provided")

// LoadSchema parses and validates a schema from the given sources.
// The GraphQL prelude (builtin scalars, directives and introspection
// types) is always included.
func LoadSchema(sources ...*ast.Source) (*Schema, error) {
	if len(sources) == 0 {
		return nil, ErrNoSchema
	}

	s, err := gqlparser.LoadSchema(sources...)
	if err != nil {
		return nil, err
	}

	return &Schema{Schema: s, Sources: sources}, nil
}

// ParseDocuments parses each source as an executable document.
// The returned documents keep the order of the sources.
func ParseDocuments(sources ...*ast.Source) ([]*Document, error) {
	docs := make([]*Document, 0, len(sources))
	for _, src := range sources {
		qd, err := parser.ParseQuery(src)
		if err != nil {
			return nil, err
		}

		docs = append(docs, &Document{QueryDocument: qd, Source: src})
	}
	return docs, nil
}

// ValidateDocuments validates the documents against the schema. All
// documents are merged before validation, so fragments may be declared
// in one document and spread in another. A non-nil error is always
// a gqlerror.List.
func ValidateDocuments(schema *Schema, docs []*Document) error {
	merged := new(ast.QueryDocument)
	for _, d := range docs {
		merged.Operations = append(merged.Operations, d.Operations...)
		merged.Fragments = append(merged.Fragments, d.Fragments...)
	}

	errs := validator.Validate(schema.Schema, merged)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Load is a convenience for LoadSchema, ParseDocuments and, unless
// skipValidation is set, ValidateDocuments.
func Load(schemaSrcs, docSrcs []*ast.Source, skipValidation bool) (*Schema, []*Document, error) {
	schema, err := LoadSchema(schemaSrcs...)
	if err != nil {
		return nil, nil, err
	}

	docs, err := ParseDocuments(docSrcs...)
	if err != nil {
		return nil, nil, err
	}

	if skipValidation {
		return schema, docs, nil
	}

	if err = ValidateDocuments(schema, docs); err != nil {
		return nil, nil, err
	}
	return schema, docs, nil
}
