package postgres

import (
	"fmt"
	"strings"

	pgquery "github.com/pganalyze/pg_query_go/v2"

	"github.com/schemadrift/schemadrift/ir"
)

// parseSQL walks a real Postgres parse tree (pg_query_go wraps Postgres's
// own grammar) into the canonical ir.SchemaObject family, covering CREATE
// TABLE, CREATE INDEX and CREATE VIEW.
func parseSQL(sql string) ([]ir.SchemaObject, error) {
	result, err := pgquery.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse: %w", err)
	}

	var objects []ir.SchemaObject
	for _, rawStmt := range result.Stmts {
		obj, ok, err := parseRawStmt(rawStmt, sql)
		if err != nil {
			return nil, err
		}
		if ok {
			objects = append(objects, obj)
		}
	}
	return objects, nil
}

func parseRawStmt(rawStmt *pgquery.RawStmt, source string) (ir.SchemaObject, bool, error) {
	node := rawStmt.Stmt
	switch stmt := node.Node.(type) {
	case *pgquery.Node_CreateStmt:
		table, err := parseCreateStmt(stmt.CreateStmt)
		if err != nil {
			return nil, false, err
		}
		return ir.TableObject{Table: table}, true, nil
	case *pgquery.Node_IndexStmt:
		return ir.IndexObject{Index: parseIndexStmt(stmt.IndexStmt)}, true, nil
	case *pgquery.Node_ViewStmt:
		view, err := parseViewStmt(stmt.ViewStmt, rawStmt, source)
		if err != nil {
			return nil, false, err
		}
		return ir.ViewObject{View: view}, true, nil
	default:
		return nil, false, nil
	}
}

func parseCreateStmt(stmt *pgquery.CreateStmt) (ir.Table, error) {
	table := ir.Table{Name: rangeVarToQualifiedName(stmt.Relation)}

	for _, elt := range stmt.TableElts {
		switch node := elt.Node.(type) {
		case *pgquery.Node_ColumnDef:
			column, err := parseColumnDef(node.ColumnDef)
			if err != nil {
				return ir.Table{}, err
			}
			table.Columns = append(table.Columns, column)
		case *pgquery.Node_Constraint:
			applyTableConstraint(&table, node.Constraint)
		}
	}
	return table, nil
}

func rangeVarToQualifiedName(relation *pgquery.RangeVar) ir.QualifiedName {
	if relation.Schemaname != "" {
		schema := ir.NewIdent(relation.Schemaname)
		return ir.NewQualifiedName(&schema, ir.NewIdent(relation.Relname))
	}
	return ir.NewQualifiedName(nil, ir.NewIdent(relation.Relname))
}

func parseColumnDef(columnDef *pgquery.ColumnDef) (ir.Column, error) {
	column := ir.Column{Name: ir.NewIdent(columnDef.Colname)}

	typeName, err := parseTypeName(columnDef.TypeName)
	if err != nil {
		return ir.Column{}, err
	}
	column.DataType = parseDataType(typeName)

	for _, c := range columnDef.Constraints {
		constraintNode, ok := c.Node.(*pgquery.Node_Constraint)
		if !ok {
			continue
		}
		switch constraintNode.Constraint.Contype {
		case pgquery.ConstrType_CONSTR_NOTNULL:
			column.NotNull = true
		case pgquery.ConstrType_CONSTR_PRIMARY:
			column.NotNull = true
		case pgquery.ConstrType_CONSTR_DEFAULT:
			column.Default = deparseExprNode(constraintNode.Constraint.RawExpr)
		}
	}
	return column, nil
}

func parseTypeName(node *pgquery.TypeName) (string, error) {
	var names []string
	for _, n := range node.Names {
		if str, ok := n.Node.(*pgquery.Node_String_); ok {
			names = append(names, str.String_.Str)
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("postgres: type name with no parts")
	}
	name := names[len(names)-1]
	if name == "bpchar" {
		name = "char"
	}
	var args []string
	for _, m := range node.Typmods {
		if val, ok := m.Node.(*pgquery.Node_AConst); ok {
			if ival, ok := val.AConst.Val.Node.(*pgquery.Node_Integer); ok {
				args = append(args, fmt.Sprintf("%d", ival.Integer.Ival))
			}
		}
	}
	if len(args) > 0 {
		name = fmt.Sprintf("%s(%s)", name, strings.Join(args, ","))
	}
	return name, nil
}

func applyTableConstraint(table *ir.Table, constraint *pgquery.Constraint) {
	switch constraint.Contype {
	case pgquery.ConstrType_CONSTR_PRIMARY:
		pk := &ir.PrimaryKey{}
		if constraint.Conname != "" {
			name := ir.NewIdent(constraint.Conname)
			pk.Name = &name
		}
		for _, key := range constraint.Keys {
			if str, ok := key.Node.(*pgquery.Node_String_); ok {
				pk.Columns = append(pk.Columns, ir.NewIdent(str.String_.Str))
			}
		}
		table.PrimaryKey = pk
	case pgquery.ConstrType_CONSTR_FOREIGN:
		fk := ir.ForeignKey{ReferencedTable: rangeVarToQualifiedName(constraint.Pktable)}
		if constraint.Conname != "" {
			name := ir.NewIdent(constraint.Conname)
			fk.Name = &name
		}
		for _, key := range constraint.FkAttrs {
			if str, ok := key.Node.(*pgquery.Node_String_); ok {
				fk.Columns = append(fk.Columns, ir.NewIdent(str.String_.Str))
			}
		}
		for _, key := range constraint.PkAttrs {
			if str, ok := key.Node.(*pgquery.Node_String_); ok {
				fk.ReferencedColumns = append(fk.ReferencedColumns, ir.NewIdent(str.String_.Str))
			}
		}
		table.ForeignKeys = append(table.ForeignKeys, fk)
	case pgquery.ConstrType_CONSTR_CHECK:
		check := ir.CheckConstraint{Expr: deparseExprNode(constraint.RawExpr)}
		if constraint.Conname != "" {
			name := ir.NewIdent(constraint.Conname)
			check.Name = &name
		}
		table.Checks = append(table.Checks, check)
	}
}

func parseIndexStmt(stmt *pgquery.IndexStmt) ir.IndexDef {
	index := ir.IndexDef{
		Owner:  ir.IndexOwner{Kind: ir.IndexOwnerTable, Name: rangeVarToQualifiedName(stmt.Relation)},
		Unique: stmt.Unique,
	}
	if stmt.Idxname != "" {
		name := ir.NewIdent(stmt.Idxname)
		index.Name = &name
	}
	for _, param := range stmt.IndexParams {
		elem, ok := param.Node.(*pgquery.Node_IndexElem)
		if !ok {
			continue
		}
		if elem.IndexElem.Name != "" {
			index.Columns = append(index.Columns, ir.IndexColumn{Expr: ir.IdentExpr{Name: ir.NewIdent(elem.IndexElem.Name)}})
		} else {
			index.Columns = append(index.Columns, ir.IndexColumn{Expr: deparseExprNode(elem.IndexElem.Expr)})
		}
	}
	return index
}

func parseViewStmt(stmt *pgquery.ViewStmt, rawStmt *pgquery.RawStmt, source string) (ir.View, error) {
	name := rangeVarToQualifiedName(stmt.View)
	text := strings.TrimSpace(source[rawStmt.StmtLocation : rawStmt.StmtLocation+rawStmt.StmtLen])
	asIdx := indexFoldPG(text, " AS ")
	if asIdx < 0 {
		return ir.View{}, fmt.Errorf("postgres: view %s missing AS clause", name.Name.Value)
	}
	query := strings.TrimSuffix(strings.TrimSpace(text[asIdx+len(" AS "):]), ";")
	return ir.NewView(name, query), nil
}

func indexFoldPG(s, substr string) int {
	return strings.Index(strings.ToUpper(s), strings.ToUpper(substr))
}

// deparseExprNode decomposes the common DEFAULT/CHECK expression shapes
// (constant literals, bare function calls like now()) into the core Expr
// family, falling back to ir.RawExpr for anything pg_query_go's Node tree
// doesn't reduce to one of those — the documented escape hatch for
// dialect-specific expression text the core can't decompose further.
func deparseExprNode(node *pgquery.Node) ir.Expr {
	if node == nil {
		return nil
	}
	switch n := node.Node.(type) {
	case *pgquery.Node_AConst:
		return deparseAConst(n.AConst)
	case *pgquery.Node_FuncCall:
		if len(n.FuncCall.Args) == 0 {
			return ir.FunctionExpr{Name: ir.NewQualifiedName(nil, ir.NewIdent(lastFuncNamePart(n.FuncCall.Funcname)))}
		}
	}
	return ir.RawExpr{SQL: fmt.Sprintf("<%T>", node.Node)}
}

func lastFuncNamePart(names []*pgquery.Node) string {
	if len(names) == 0 {
		return ""
	}
	if str, ok := names[len(names)-1].Node.(*pgquery.Node_String_); ok {
		return str.String_.Str
	}
	return ""
}

func deparseAConst(aconst *pgquery.A_Const) ir.Expr {
	switch v := aconst.Val.Node.(type) {
	case *pgquery.Node_Integer:
		return ir.LiteralExpr{Value: ir.IntegerLiteral{Value: int64(v.Integer.Ival)}}
	case *pgquery.Node_Float:
		return ir.RawExpr{SQL: v.Float.Str}
	case *pgquery.Node_String_:
		return ir.LiteralExpr{Value: ir.StringLiteral{Value: v.String_.Str}}
	default:
		return ir.RawExpr{SQL: "<const>"}
	}
}
