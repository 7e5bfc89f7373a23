// Package annotation extracts @renamed (and deprecated @rename) directives
// from SQL line comments before a dialect parser ever sees the SQL, and
// attaches the extracted annotations back onto the parsed IR objects.
package annotation

import (
	"fmt"
	"strings"

	"github.com/schemadrift/schemadrift/corerr"
	"github.com/schemadrift/schemadrift/ir"
)

const (
	renamedKeyword      = "@renamed"
	renameAliasKeyword  = "@rename"
)

// RenameAnnotation is a single rename directive captured from a SQL
// comment.
type RenameAnnotation struct {
	// Line is the 1-based source line number in the original SQL.
	Line int
	// From is the source identifier named by the `from=...` clause.
	From ir.Ident
	// DeprecatedAlias is true when extracted via the deprecated @rename
	// spelling rather than @renamed.
	DeprecatedAlias bool
}

// AnnotationTarget identifies what a parsed schema object at a given line
// is expected to be, so an annotation can be matched back to it.
type AnnotationTargetKind int

const (
	TargetTable AnnotationTargetKind = iota
	TargetView
	TargetMaterializedView
	TargetTableColumn
	TargetMaterializedViewColumn
)

type AnnotationTarget struct {
	Kind   AnnotationTargetKind
	Name   ir.QualifiedName // Table/View/MaterializedView, or the owner for *Column kinds
	Column ir.Ident         // valid for *Column kinds only
}

// AnnotationAttachment pins an AnnotationTarget to the source line its
// annotation comment appeared on.
type AnnotationAttachment struct {
	Line   int
	Target AnnotationTarget
}

// Extract scans sql line by line for @renamed/@rename directives inside
// line comments, strips the directive text (but not the whole comment) out
// of the returned SQL, and reports every annotation found with its 1-based
// line number preserved so later attachment can re-locate the annotation's
// owning object.
func Extract(sql string) (string, []RenameAnnotation, error) {
	var cleaned strings.Builder
	cleaned.Grow(len(sql))
	var annotations []RenameAnnotation

	for i, rawLine := range splitInclusive(sql, '\n') {
		line, ending := splitLineEnding(rawLine)
		cleanedLine := line

		if commentStart := findLineCommentStart(line); commentStart >= 0 {
			comment := line[commentStart+2:]
			if parsed, ok := parseAnnotation(comment); ok {
				annotations = append(annotations, RenameAnnotation{
					Line:            i + 1,
					From:            parsed.from,
					DeprecatedAlias: parsed.deprecatedAlias,
				})
				cleanedLine = line[:commentStart+2] + comment[:parsed.start] + comment[parsed.end:]
			}
		}

		cleaned.WriteString(cleanedLine)
		cleaned.WriteString(ending)
	}

	return cleaned.String(), annotations, nil
}

func splitInclusive(s string, sep byte) []string {
	if s == "" {
		return nil
	}
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			parts = append(parts, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

func splitLineEnding(rawLine string) (line, ending string) {
	if strings.HasSuffix(rawLine, "\n") {
		return rawLine[:len(rawLine)-1], "\n"
	}
	return rawLine, ""
}

// findLineCommentStart finds the byte offset of a `--` that begins a line
// comment, tracking single/double-quote state (with doubled-quote escaping)
// so a `--` inside a string literal is never mistaken for one.
func findLineCommentStart(line string) int {
	inSingle, inDouble := false, false
	i := 0
	for i < len(line) {
		switch {
		case inSingle:
			if line[i] == '\'' {
				if i+1 < len(line) && line[i+1] == '\'' {
					i += 2
					continue
				}
				inSingle = false
			}
			i++
		case inDouble:
			if line[i] == '"' {
				if i+1 < len(line) && line[i+1] == '"' {
					i += 2
					continue
				}
				inDouble = false
			}
			i++
		default:
			switch line[i] {
			case '\'':
				inSingle = true
				i++
			case '"':
				inDouble = true
				i++
			case '-':
				if i+1 < len(line) && line[i+1] == '-' {
					return i
				}
				i++
			default:
				i++
			}
		}
	}
	return -1
}

type parsedAnnotation struct {
	start, end      int
	from            ir.Ident
	deprecatedAlias bool
}

func parseAnnotation(comment string) (parsedAnnotation, bool) {
	searchFrom := 0
	for searchFrom < len(comment) {
		rel := strings.IndexByte(comment[searchFrom:], '@')
		if rel < 0 {
			break
		}
		at := searchFrom + rel
		if parsed, ok := parseAnnotationAt(comment, at); ok {
			return parsed, true
		}
		searchFrom = at + 1
	}
	return parsedAnnotation{}, false
}

func parseAnnotationAt(comment string, start int) (parsedAnnotation, bool) {
	remaining := comment[start:]
	var keywordLen int
	var deprecatedAlias bool
	switch {
	case strings.HasPrefix(remaining, renamedKeyword):
		keywordLen, deprecatedAlias = len(renamedKeyword), false
	case strings.HasPrefix(remaining, renameAliasKeyword):
		keywordLen, deprecatedAlias = len(renameAliasKeyword), true
	default:
		return parsedAnnotation{}, false
	}

	cursor := start + keywordLen
	if cursor < len(comment) && !isASCIISpace(comment[cursor]) {
		return parsedAnnotation{}, false
	}

	cursor = skipASCIIWhitespace(comment, cursor)
	if !strings.HasPrefix(comment[cursor:], "from") {
		return parsedAnnotation{}, false
	}
	cursor += len("from")

	cursor = skipASCIIWhitespace(comment, cursor)
	if cursor >= len(comment) || comment[cursor] != '=' {
		return parsedAnnotation{}, false
	}
	cursor++

	cursor = skipASCIIWhitespace(comment, cursor)
	from, end, ok := parseIdent(comment, cursor)
	if !ok {
		return parsedAnnotation{}, false
	}

	return parsedAnnotation{start: start, end: end, from: from, deprecatedAlias: deprecatedAlias}, true
}

func isASCIISpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

func skipASCIIWhitespace(s string, index int) int {
	for index < len(s) && isASCIISpace(s[index]) {
		index++
	}
	return index
}

func parseIdent(input string, start int) (ir.Ident, int, bool) {
	if start >= len(input) {
		return ir.Ident{}, 0, false
	}

	if input[start] == '"' {
		var value strings.Builder
		index := start + 1
		for index < len(input) {
			if input[index] == '"' {
				if index+1 < len(input) && input[index+1] == '"' {
					value.WriteByte('"')
					index += 2
					continue
				}
				return ir.NewQuotedIdent(value.String()), index + 1, true
			}
			value.WriteByte(input[index])
			index++
		}
		return ir.Ident{}, 0, false
	}

	index := start
	for index < len(input) && !isASCIISpace(input[index]) {
		index++
	}
	if index == start {
		return ir.Ident{}, 0, false
	}
	return ir.NewIdent(input[start:index]), index, true
}

// BuildAttachments scans cleaned SQL (post-Extract) line by line for CREATE
// TABLE/VIEW/MATERIALIZED VIEW headers and the column lines inside a table's
// column list, recording which line each potential annotation target sits
// on. Source position isn't threaded through the dialect parsers, so this
// walks the text independently of them; it only needs to agree with Extract
// on line numbers, not reproduce parsing.
func BuildAttachments(sql string) []AnnotationAttachment {
	var attachments []AnnotationAttachment
	var currentTable *ir.QualifiedName
	depth := 0

	for i, rawLine := range splitInclusive(sql, '\n') {
		line, _ := splitLineEnding(rawLine)
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		isHeaderLine := false
		if name, kind, ok := matchCreateHeader(trimmed); ok {
			isHeaderLine = true
			attachments = append(attachments, AnnotationAttachment{
				Line:   lineNo,
				Target: AnnotationTarget{Kind: kind, Name: name},
			})
			if kind == TargetTable {
				currentTable = &name
				depth = 0
			} else {
				currentTable = nil
			}
		}

		if currentTable != nil {
			depth += strings.Count(trimmed, "(") - strings.Count(trimmed, ")")
			if depth > 0 && !isHeaderLine {
				if col, ok := leadingColumnName(trimmed); ok {
					attachments = append(attachments, AnnotationAttachment{
						Line:   lineNo,
						Target: AnnotationTarget{Kind: TargetTableColumn, Name: *currentTable, Column: col},
					})
				}
			}
			if depth <= 0 {
				currentTable = nil
			}
		}
	}

	return attachments
}

var createTableKeywords = map[string]bool{
	"primary": true, "foreign": true, "constraint": true, "unique": true,
	"check": true, "key": true, "index": true, "exclude": true,
}

func matchCreateHeader(line string) (ir.QualifiedName, AnnotationTargetKind, bool) {
	upper := strings.ToUpper(line)
	switch {
	case strings.HasPrefix(upper, "CREATE MATERIALIZED VIEW"):
		name, ok := extractNameAfter(line, len("CREATE MATERIALIZED VIEW"))
		return name, TargetMaterializedView, ok
	case strings.HasPrefix(upper, "CREATE VIEW"):
		name, ok := extractNameAfter(line, len("CREATE VIEW"))
		return name, TargetView, ok
	case strings.HasPrefix(upper, "CREATE TABLE"):
		name, ok := extractNameAfter(line, len("CREATE TABLE"))
		return name, TargetTable, ok
	}
	return ir.QualifiedName{}, 0, false
}

func extractNameAfter(line string, skip int) (ir.QualifiedName, bool) {
	rest := strings.TrimSpace(line[skip:])
	rest = strings.TrimPrefix(rest, "IF NOT EXISTS ")
	rest = strings.TrimPrefix(rest, "if not exists ")
	end := 0
	for end < len(rest) && !isASCIISpace(rest[end]) && rest[end] != '(' {
		end++
	}
	token := strings.TrimSuffix(rest[:end], ";")
	if token == "" {
		return ir.QualifiedName{}, false
	}
	parts := strings.SplitN(token, ".", 2)
	if len(parts) == 2 {
		schema := ir.NewIdent(unquote(parts[0]))
		return ir.QualifiedName{Schema: &schema, Name: ir.NewIdent(unquote(parts[1]))}, true
	}
	return ir.QualifiedName{Name: ir.NewIdent(unquote(parts[0]))}, true
}

func unquote(token string) string {
	token = strings.Trim(token, `"`+"`"+"[]")
	return token
}

func leadingColumnName(line string) (ir.Ident, bool) {
	end := 0
	for end < len(line) && !isASCIISpace(line[end]) && line[end] != ',' && line[end] != '(' {
		end++
	}
	token := line[:end]
	if token == "" || createTableKeywords[strings.ToLower(token)] {
		return ir.Ident{}, false
	}
	if token == "(" || strings.ContainsAny(token, "()") {
		return ir.Ident{}, false
	}
	return ir.NewIdent(unquote(token)), true
}

// Attach resolves every annotation against attachments and objects, then
// mutates objects in place. The resolution pass runs to completion before
// any mutation happens, so a single unattachable annotation leaves objects
// untouched (fail-fast, no partial rename).
func Attach(objects []ir.SchemaObject, annotations []RenameAnnotation, attachments []AnnotationAttachment) error {
	type op struct {
		objectIndex, columnIndex int
		hasColumn                bool
		target                   AnnotationTargetKind
		from                     ir.Ident
	}
	ops := make([]op, 0, len(annotations))

	for _, annotation := range annotations {
		attachment, err := findAttachmentForLine(attachments, annotation)
		if err != nil {
			return err
		}
		switch attachment.Target.Kind {
		case TargetTable:
			idx, err := findSingleTable(objects, attachment.Target.Name)
			if err != nil {
				return orphanAnnotationError(annotation)
			}
			ops = append(ops, op{objectIndex: idx, target: TargetTable, from: annotation.From})
		case TargetView:
			idx, err := findSingleView(objects, attachment.Target.Name)
			if err != nil {
				return orphanAnnotationError(annotation)
			}
			ops = append(ops, op{objectIndex: idx, target: TargetView, from: annotation.From})
		case TargetMaterializedView:
			idx, err := findSingleMaterializedView(objects, attachment.Target.Name)
			if err != nil {
				return orphanAnnotationError(annotation)
			}
			ops = append(ops, op{objectIndex: idx, target: TargetMaterializedView, from: annotation.From})
		case TargetTableColumn:
			objIdx, colIdx, ok := findTableColumnIndex(objects, attachment.Target.Name, attachment.Target.Column)
			if !ok {
				return orphanAnnotationError(annotation)
			}
			ops = append(ops, op{objectIndex: objIdx, columnIndex: colIdx, hasColumn: true, target: TargetTableColumn, from: annotation.From})
		case TargetMaterializedViewColumn:
			objIdx, colIdx, ok := findMaterializedViewColumnIndex(objects, attachment.Target.Name, attachment.Target.Column)
			if !ok {
				return orphanAnnotationError(annotation)
			}
			ops = append(ops, op{objectIndex: objIdx, columnIndex: colIdx, hasColumn: true, target: TargetMaterializedViewColumn, from: annotation.From})
		}
	}

	for _, o := range ops {
		from := o.from
		switch o.target {
		case TargetTable:
			if t, ok := objects[o.objectIndex].(ir.TableObject); ok {
				t.Table.RenamedFrom = &from
				objects[o.objectIndex] = t
			}
		case TargetView:
			if v, ok := objects[o.objectIndex].(ir.ViewObject); ok {
				v.View.RenamedFrom = &from
				objects[o.objectIndex] = v
			}
		case TargetMaterializedView:
			if v, ok := objects[o.objectIndex].(ir.MaterializedViewObject); ok {
				v.MaterializedView.RenamedFrom = &from
				objects[o.objectIndex] = v
			}
		case TargetTableColumn:
			if t, ok := objects[o.objectIndex].(ir.TableObject); ok {
				t.Table.Columns[o.columnIndex].RenamedFrom = &from
				objects[o.objectIndex] = t
			}
		case TargetMaterializedViewColumn:
			if v, ok := objects[o.objectIndex].(ir.MaterializedViewObject); ok {
				v.MaterializedView.Columns[o.columnIndex].RenamedFrom = &from
				objects[o.objectIndex] = v
			}
		}
	}

	return nil
}

func findAttachmentForLine(attachments []AnnotationAttachment, annotation RenameAnnotation) (AnnotationAttachment, error) {
	var found *AnnotationAttachment
	for i := range attachments {
		if attachments[i].Line != annotation.Line {
			continue
		}
		if found != nil {
			return AnnotationAttachment{}, orphanAnnotationError(annotation)
		}
		found = &attachments[i]
	}
	if found == nil {
		return AnnotationAttachment{}, orphanAnnotationError(annotation)
	}
	return *found, nil
}

func findSingleTable(objects []ir.SchemaObject, name ir.QualifiedName) (int, error) {
	idx := -1
	for i, obj := range objects {
		t, ok := obj.(ir.TableObject)
		if !ok || !qualifiedNameMatches(t.Table.Name, name) {
			continue
		}
		if idx != -1 {
			return 0, fmt.Errorf("ambiguous table match")
		}
		idx = i
	}
	if idx == -1 {
		return 0, fmt.Errorf("no table match")
	}
	return idx, nil
}

func findSingleView(objects []ir.SchemaObject, name ir.QualifiedName) (int, error) {
	idx := -1
	for i, obj := range objects {
		v, ok := obj.(ir.ViewObject)
		if !ok || !qualifiedNameMatches(v.View.Name, name) {
			continue
		}
		if idx != -1 {
			return 0, fmt.Errorf("ambiguous view match")
		}
		idx = i
	}
	if idx == -1 {
		return 0, fmt.Errorf("no view match")
	}
	return idx, nil
}

func findSingleMaterializedView(objects []ir.SchemaObject, name ir.QualifiedName) (int, error) {
	idx := -1
	for i, obj := range objects {
		v, ok := obj.(ir.MaterializedViewObject)
		if !ok || !qualifiedNameMatches(v.MaterializedView.Name, name) {
			continue
		}
		if idx != -1 {
			return 0, fmt.Errorf("ambiguous materialized view match")
		}
		idx = i
	}
	if idx == -1 {
		return 0, fmt.Errorf("no materialized view match")
	}
	return idx, nil
}

func findTableColumnIndex(objects []ir.SchemaObject, tableName ir.QualifiedName, columnName ir.Ident) (int, int, bool) {
	objIdx, err := findSingleTable(objects, tableName)
	if err != nil {
		return 0, 0, false
	}
	table := objects[objIdx].(ir.TableObject).Table
	colIdx := -1
	for i, col := range table.Columns {
		if !identMatches(col.Name, columnName) {
			continue
		}
		if colIdx != -1 {
			return 0, 0, false
		}
		colIdx = i
	}
	if colIdx == -1 {
		return 0, 0, false
	}
	return objIdx, colIdx, true
}

func findMaterializedViewColumnIndex(objects []ir.SchemaObject, viewName ir.QualifiedName, columnName ir.Ident) (int, int, bool) {
	objIdx, err := findSingleMaterializedView(objects, viewName)
	if err != nil {
		return 0, 0, false
	}
	view := objects[objIdx].(ir.MaterializedViewObject).MaterializedView
	colIdx := -1
	for i, col := range view.Columns {
		if !identMatches(col.Name, columnName) {
			continue
		}
		if colIdx != -1 {
			return 0, 0, false
		}
		colIdx = i
	}
	if colIdx == -1 {
		return 0, 0, false
	}
	return objIdx, colIdx, true
}

func orphanAnnotationError(annotation RenameAnnotation) error {
	return &corerr.DiffError{
		Target:    fmt.Sprintf("annotation @renamed from=%s on line %d", formatIdentForAnnotation(annotation.From), annotation.Line),
		Operation: "rename annotation mismatch",
	}
}

func formatIdentForAnnotation(ident ir.Ident) string {
	if ident.Quoted {
		return `"` + strings.ReplaceAll(ident.Value, `"`, `""`) + `"`
	}
	return ident.Value
}

func qualifiedNameMatches(left, right ir.QualifiedName) bool {
	return optionalIdentMatches(left.Schema, right.Schema) && identMatches(left.Name, right.Name)
}

func optionalIdentMatches(left, right *ir.Ident) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	return identMatches(*left, *right)
}

func identMatches(left, right ir.Ident) bool {
	if left.Quoted || right.Quoted {
		return left.Quoted == right.Quoted && left.Value == right.Value
	}
	return strings.EqualFold(left.Value, right.Value)
}
