// Package ddl holds the DDL-statement splitting and minimal recursive
// descent parsing shared by the dialects that don't have a real SQL
// parser library available (mysql, sqlite, mssql): CREATE TABLE, CREATE
// [UNIQUE] INDEX and CREATE VIEW, covering the common core of the closed
// ir.SchemaObject family. Each dialect supplies its own TypeMapper for
// native type syntax and its own renderer for generating DDL text back
// out; this package only owns the parsing and expression-rendering pieces
// that are identical across engines.
package ddl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/schemadrift/schemadrift/ir"
)

// SplitStatements splits a SQL script on top-level semicolons, skipping
// semicolons inside string/quoted-identifier literals and parenthesized
// groups (so a CHECK(...) or DEFAULT(...) clause's own semicolon-free
// punctuation never confuses the split). Leading "--" line comments are
// stripped first.
func SplitStatements(sql string) []string {
	var stripped strings.Builder
	for _, line := range strings.Split(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "--") {
			continue
		}
		stripped.WriteString(line)
		stripped.WriteByte('\n')
	}
	sql = stripped.String()

	var statements []string
	var current strings.Builder
	depth := 0
	var quote byte
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		if quote != 0 {
			current.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
			current.WriteByte(c)
		case '(':
			depth++
			current.WriteByte(c)
		case ')':
			depth--
			current.WriteByte(c)
		case ';':
			if depth == 0 {
				statements = append(statements, strings.TrimSpace(current.String()))
				current.Reset()
				continue
			}
			current.WriteByte(c)
		default:
			current.WriteByte(c)
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		statements = append(statements, rest)
	}

	filtered := statements[:0]
	for _, stmt := range statements {
		if stmt != "" {
			filtered = append(filtered, stmt)
		}
	}
	return filtered
}

// TypeMapper converts a dialect's native column type name plus its
// parenthesized arguments (e.g. "varchar" / [255], "numeric" / [10, 2])
// into the closed ir.DataType family, falling back to ir.CustomType for
// anything dialect-specific it doesn't recognize.
type TypeMapper func(name string, args []int) ir.DataType

// ParseStatements parses every CREATE TABLE / CREATE [UNIQUE] INDEX /
// CREATE VIEW statement in sql into ir.SchemaObject values using
// typeMapper for column types. Any other statement kind is skipped rather
// than erroring, since a desired-schema script legitimately may contain
// statements (e.g. COMMENT ON, GRANT) a dialect handles through its own
// richer parser; dialects relying on this shared parser accept that
// narrower coverage as the tradeoff for not vendoring a second parser.
func ParseStatements(sql string, typeMapper TypeMapper) ([]ir.SchemaObject, error) {
	var objects []ir.SchemaObject
	for _, stmt := range SplitStatements(sql) {
		obj, ok, err := parseStatement(stmt, typeMapper)
		if err != nil {
			return nil, fmt.Errorf("ddl: parse statement %q: %w", stmt, err)
		}
		if ok {
			objects = append(objects, obj)
		}
	}
	return objects, nil
}

func parseStatement(stmt string, typeMapper TypeMapper) (ir.SchemaObject, bool, error) {
	upper := strings.ToUpper(strings.TrimSpace(stmt))
	switch {
	case strings.HasPrefix(upper, "CREATE TABLE"):
		table, err := parseCreateTable(stmt, typeMapper)
		if err != nil {
			return nil, false, err
		}
		return ir.TableObject{Table: table}, true, nil
	case strings.HasPrefix(upper, "CREATE VIEW") || strings.HasPrefix(upper, "CREATE OR REPLACE VIEW"):
		view, err := parseCreateView(stmt)
		if err != nil {
			return nil, false, err
		}
		return ir.ViewObject{View: view}, true, nil
	case strings.HasPrefix(upper, "CREATE INDEX") || strings.HasPrefix(upper, "CREATE UNIQUE INDEX"):
		index, err := parseCreateIndex(stmt)
		if err != nil {
			return nil, false, err
		}
		return ir.IndexObject{Index: index}, true, nil
	default:
		return nil, false, nil
	}
}

func parseCreateTable(stmt string, typeMapper TypeMapper) (ir.Table, error) {
	rest := stmt
	rest = trimPrefixFold(rest, "CREATE TABLE")
	rest = strings.TrimSpace(trimPrefixFold(rest, "IF NOT EXISTS"))

	openParen := strings.IndexByte(rest, '(')
	if openParen < 0 {
		return ir.Table{}, fmt.Errorf("missing column list")
	}
	name := strings.TrimSpace(rest[:openParen])
	body, trailer := splitBalancedParen(rest[openParen:])

	table := ir.Table{Name: parseQualifiedName(name)}
	for _, item := range splitTopLevelCommas(body) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		switch {
		case hasFold(item, "PRIMARY KEY"):
			table.PrimaryKey = parsePrimaryKeyClause(item)
		case hasFold(item, "FOREIGN KEY") || hasFold(item, "REFERENCES"):
			if fk, ok := parseForeignKeyClause(item); ok {
				table.ForeignKeys = append(table.ForeignKeys, fk)
			}
		case hasFold(item, "CHECK"):
			if check, ok := parseCheckClause(item); ok {
				table.Checks = append(table.Checks, check)
			}
		case hasFold(item, "UNIQUE") && !strings.Contains(item, " "+firstWord(item)+" ") && isConstraintClause(item):
			// table-level UNIQUE(...) constraint: skipped; it is not attached to
			// the Table value and no index is produced for it.
		default:
			column, err := parseColumnDef(item, typeMapper)
			if err != nil {
				return ir.Table{}, err
			}
			table.Columns = append(table.Columns, column)
		}
	}
	_ = trailer
	return table, nil
}

func isConstraintClause(item string) bool {
	first := strings.ToUpper(firstWord(item))
	return first == "UNIQUE" || first == "CONSTRAINT" || first == "PRIMARY" || first == "FOREIGN" || first == "CHECK"
}

func parseColumnDef(item string, typeMapper TypeMapper) (ir.Column, error) {
	tokens := tokenize(item)
	if len(tokens) < 2 {
		return ir.Column{}, fmt.Errorf("malformed column definition: %q", item)
	}
	column := ir.Column{Name: parseIdent(tokens[0])}

	typeName := tokens[1]
	var args []int
	rest := tokens[2:]
	if len(rest) > 0 && strings.HasPrefix(rest[0], "(") {
		args = parseIntArgs(rest[0])
		rest = rest[1:]
	}
	column.DataType = typeMapper(strings.ToLower(typeName), args)

	for i := 0; i < len(rest); i++ {
		switch strings.ToUpper(rest[i]) {
		case "NOT":
			if i+1 < len(rest) && strings.EqualFold(rest[i+1], "NULL") {
				column.NotNull = true
				i++
			}
		case "NULL":
			// explicit NULL: leave NotNull false
		case "DEFAULT":
			if i+1 < len(rest) {
				column.Default = ParseExprToken(rest[i+1])
				i++
			}
		case "PRIMARY":
			if i+1 < len(rest) && strings.EqualFold(rest[i+1], "KEY") {
				column.NotNull = true
				i++
			}
		case "UNIQUE", "AUTO_INCREMENT", "AUTOINCREMENT", "IDENTITY":
			// dialect-specific surface handled by each dialect's own post-pass
			// over the parsed column, not by the shared parser.
		}
	}
	return column, nil
}

func parsePrimaryKeyClause(item string) *ir.PrimaryKey {
	open := strings.IndexByte(item, '(')
	if open < 0 {
		return nil
	}
	body, _ := splitBalancedParen(item[open:])
	var columns []ir.Ident
	for _, col := range splitTopLevelCommas(body) {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		columns = append(columns, parseIdent(col))
	}
	return &ir.PrimaryKey{Columns: columns}
}

func parseForeignKeyClause(item string) (ir.ForeignKey, bool) {
	refIdx := indexFold(item, "REFERENCES")
	if refIdx < 0 {
		return ir.ForeignKey{}, false
	}
	before := item[:refIdx]
	after := strings.TrimSpace(item[refIdx+len("REFERENCES"):])

	var columns []ir.Ident
	if open := strings.IndexByte(before, '('); open >= 0 {
		body, _ := splitBalancedParen(before[open:])
		for _, col := range splitTopLevelCommas(body) {
			if col = strings.TrimSpace(col); col != "" {
				columns = append(columns, parseIdent(col))
			}
		}
	}

	open := strings.IndexByte(after, '(')
	var refTableText string
	var refColumns []ir.Ident
	if open >= 0 {
		refTableText = strings.TrimSpace(after[:open])
		body, _ := splitBalancedParen(after[open:])
		for _, col := range splitTopLevelCommas(body) {
			if col = strings.TrimSpace(col); col != "" {
				refColumns = append(refColumns, parseIdent(col))
			}
		}
	} else {
		refTableText = strings.TrimSpace(firstWord(after))
	}

	return ir.ForeignKey{
		Columns:           columns,
		ReferencedTable:   parseQualifiedName(refTableText),
		ReferencedColumns: refColumns,
	}, true
}

func parseCheckClause(item string) (ir.CheckConstraint, bool) {
	idx := indexFold(item, "CHECK")
	if idx < 0 {
		return ir.CheckConstraint{}, false
	}
	rest := strings.TrimSpace(item[idx+len("CHECK"):])
	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return ir.CheckConstraint{}, false
	}
	body, _ := splitBalancedParen(rest[open:])
	return ir.CheckConstraint{Expr: ir.RawExpr{SQL: strings.TrimSpace(body)}}, true
}

func parseCreateView(stmt string) (ir.View, error) {
	rest := trimPrefixFold(stmt, "CREATE OR REPLACE VIEW")
	if rest == stmt {
		rest = trimPrefixFold(stmt, "CREATE VIEW")
	}
	asIdx := indexFold(rest, " AS ")
	if asIdx < 0 {
		return ir.View{}, fmt.Errorf("missing AS in view definition")
	}
	name := strings.TrimSpace(rest[:asIdx])
	query := strings.TrimSpace(rest[asIdx+len(" AS "):])
	return ir.NewView(parseQualifiedName(name), query), nil
}

func parseCreateIndex(stmt string) (ir.IndexDef, error) {
	unique := hasFold(stmt, "UNIQUE")
	rest := trimPrefixFold(stmt, "CREATE UNIQUE INDEX")
	if rest == stmt {
		rest = trimPrefixFold(stmt, "CREATE INDEX")
	}
	onIdx := indexFold(rest, " ON ")
	if onIdx < 0 {
		return ir.IndexDef{}, fmt.Errorf("missing ON in index definition")
	}
	name := strings.TrimSpace(rest[:onIdx])
	after := strings.TrimSpace(rest[onIdx+len(" ON "):])

	open := strings.IndexByte(after, '(')
	if open < 0 {
		return ir.IndexDef{}, fmt.Errorf("missing column list in index definition")
	}
	tableName := strings.TrimSpace(after[:open])
	body, _ := splitBalancedParen(after[open:])

	var columns []ir.IndexColumn
	for _, col := range splitTopLevelCommas(body) {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		columns = append(columns, ir.IndexColumn{Expr: ir.IdentExpr{Name: parseIdent(col)}})
	}

	indexName := parseIdent(name)
	return ir.IndexDef{
		Name:    &indexName,
		Owner:   ir.IndexOwner{Kind: ir.IndexOwnerTable, Name: parseQualifiedName(tableName)},
		Columns: columns,
		Unique:  unique,
	}, nil
}

// ParseExprToken converts one DEFAULT/CHECK right-hand token into an
// ir.Expr: recognized literals become LiteralExpr, a bare identifier-style
// function call (CURRENT_TIMESTAMP, etc.) becomes FunctionExpr, and
// anything else is preserved verbatim as RawExpr.
func ParseExprToken(token string) ir.Expr {
	trimmed := strings.TrimSuffix(token, ",")
	switch {
	case strings.EqualFold(trimmed, "NULL"):
		return ir.NullExpr{}
	case strings.EqualFold(trimmed, "TRUE"):
		return ir.LiteralExpr{Value: ir.BoolLiteral{Value: true}}
	case strings.EqualFold(trimmed, "FALSE"):
		return ir.LiteralExpr{Value: ir.BoolLiteral{Value: false}}
	case len(trimmed) >= 2 && trimmed[0] == '\'' && trimmed[len(trimmed)-1] == '\'':
		return ir.LiteralExpr{Value: ir.StringLiteral{Value: strings.ReplaceAll(trimmed[1:len(trimmed)-1], "''", "'")}}
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return ir.LiteralExpr{Value: ir.IntegerLiteral{Value: i}}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return ir.LiteralExpr{Value: ir.FloatLiteral{Value: f}}
	}
	if isBareIdentToken(trimmed) {
		return ir.FunctionExpr{Name: ir.NewQualifiedName(nil, ir.NewIdent(trimmed))}
	}
	return ir.RawExpr{SQL: trimmed}
}

// RenderExpr renders an ir.Expr back to SQL text. It covers the subset the
// shared parser above can itself produce, plus the common scalar
// expression shapes a dialect's generator composes when building a
// DEFAULT or CHECK clause; anything richer should come through already as
// RawExpr from whichever path produced it.
func RenderExpr(e ir.Expr) string {
	switch v := e.(type) {
	case nil:
		return ""
	case ir.NullExpr:
		return "NULL"
	case ir.LiteralExpr:
		return renderLiteral(v.Value)
	case ir.IdentExpr:
		return v.Name.Value
	case ir.QualifiedIdentExpr:
		return v.Qualifier.Value + "." + v.Name.Value
	case ir.RawExpr:
		return v.SQL
	case ir.FunctionExpr:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = RenderExpr(a)
		}
		return fmt.Sprintf("%s(%s)", v.Name.Name.Value, strings.Join(args, ", "))
	case ir.ParenExpr:
		return "(" + RenderExpr(v.Inner) + ")"
	case ir.UnaryOpExpr:
		return unaryOpSymbol(v.Op) + RenderExpr(v.Operand)
	case ir.BinaryOpExpr:
		return RenderExpr(v.Left) + " " + binaryOpSymbol(v.Op) + " " + RenderExpr(v.Right)
	default:
		return fmt.Sprintf("%v", e)
	}
}

func renderLiteral(l ir.Literal) string {
	switch v := l.(type) {
	case ir.StringLiteral:
		return "'" + strings.ReplaceAll(v.Value, "'", "''") + "'"
	case ir.IntegerLiteral:
		return strconv.FormatInt(v.Value, 10)
	case ir.FloatLiteral:
		return strconv.FormatFloat(v.Value, 'g', -1, 64)
	case ir.BoolLiteral:
		if v.Value {
			return "TRUE"
		}
		return "FALSE"
	case ir.NullLiteral:
		return "NULL"
	default:
		panic("ddl: unreachable Literal variant")
	}
}

func unaryOpSymbol(op ir.UnaryOperator) string {
	switch op {
	case ir.UnaryOpNeg:
		return "-"
	case ir.UnaryOpPlus:
		return "+"
	case ir.UnaryOpBitNot:
		return "~"
	default:
		return ""
	}
}

func binaryOpSymbol(op ir.BinaryOperator) string {
	switch op {
	case ir.BinaryOpAdd:
		return "+"
	case ir.BinaryOpSub:
		return "-"
	case ir.BinaryOpMul:
		return "*"
	case ir.BinaryOpDiv:
		return "/"
	case ir.BinaryOpMod:
		return "%"
	case ir.BinaryOpConcat:
		return "||"
	case ir.BinaryOpBitAnd:
		return "&"
	case ir.BinaryOpBitOr:
		return "|"
	case ir.BinaryOpBitXor:
		return "^"
	default:
		return ""
	}
}

// --- small tokenizing helpers shared by the parse functions above ---

func trimPrefixFold(s, prefix string) string {
	if len(s) < len(prefix) {
		return s
	}
	if strings.EqualFold(s[:len(prefix)], prefix) {
		return strings.TrimSpace(s[len(prefix):])
	}
	return s
}

func hasFold(s, substr string) bool {
	return indexFold(s, substr) >= 0
}

func indexFold(s, substr string) int {
	return strings.Index(strings.ToUpper(s), strings.ToUpper(substr))
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func isBareIdentToken(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '(' || r == ')' {
			return true
		}
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// splitBalancedParen expects s to start with '(' and returns the text
// between the matching ')' plus whatever trails after it.
func splitBalancedParen(s string) (body, trailer string) {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], s[i+1:]
			}
		}
	}
	return strings.TrimPrefix(s, "("), ""
}

// splitTopLevelCommas splits s on commas that are not nested inside
// parentheses or string/quoted-identifier literals.
func splitTopLevelCommas(s string) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			current.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
			current.WriteByte(c)
		case '(':
			depth++
			current.WriteByte(c)
		case ')':
			depth--
			current.WriteByte(c)
		case ',':
			if depth == 0 {
				parts = append(parts, current.String())
				current.Reset()
				continue
			}
			current.WriteByte(c)
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// tokenize splits a column/constraint clause into whitespace-separated
// tokens, never splitting inside quotes or parentheses: "decimal(10,2)"
// stays one token, and "decimal (10,2)" gives "decimal" and "(10,2)".
func tokenize(s string) []string {
	var tokens []string
	var current strings.Builder
	depth := 0
	var quote byte
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			current.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case c == '\'' || c == '"' || c == '`':
			quote = c
			current.WriteByte(c)
		case c == '(':
			depth++
			current.WriteByte(c)
		case c == ')':
			depth--
			current.WriteByte(c)
			if depth == 0 {
				flush()
			}
		case c == ' ' || c == '\t' || c == '\n':
			if depth == 0 {
				flush()
			} else {
				current.WriteByte(c)
			}
		default:
			current.WriteByte(c)
		}
	}
	flush()
	return tokens
}

func parseIntArgs(parenGroup string) []int {
	body, _ := splitBalancedParen(parenGroup)
	var args []int
	for _, part := range splitTopLevelCommas(body) {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			args = append(args, n)
		}
	}
	return args
}

func parseIdent(raw string) ir.Ident {
	raw = strings.TrimSpace(strings.TrimSuffix(raw, ","))
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '`') && raw[len(raw)-1] == raw[0] {
		return ir.Ident{Value: raw[1 : len(raw)-1], Quoted: true}
	}
	return ir.NewIdent(raw)
}

func parseQualifiedName(raw string) ir.QualifiedName {
	raw = strings.TrimSpace(raw)
	parts := strings.SplitN(raw, ".", 2)
	if len(parts) == 2 {
		schema := parseIdent(parts[0])
		return ir.NewQualifiedName(&schema, parseIdent(parts[1]))
	}
	return ir.NewQualifiedName(nil, parseIdent(raw))
}
