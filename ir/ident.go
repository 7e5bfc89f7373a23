// Package ir defines the canonical in-memory representation of schema
// objects shared by every dialect: identifiers, data types, expressions and
// the closed family of schema objects a diff can be computed over.
package ir

// Ident is a single SQL identifier, tracking whether the source spelled it
// with quotes (which pins its case) or bare (which is subject to the
// dialect's folding rules).
type Ident struct {
	Value  string
	Quoted bool
}

func NewIdent(value string) Ident {
	return Ident{Value: value}
}

func NewQuotedIdent(value string) Ident {
	return Ident{Value: value, Quoted: true}
}

// QualifiedName is an identifier optionally scoped to a schema.
type QualifiedName struct {
	Schema *Ident
	Name   Ident
}

func NewQualifiedName(schema *Ident, name Ident) QualifiedName {
	return QualifiedName{Schema: schema, Name: name}
}
