package diff

import "github.com/schemadrift/schemadrift/ir"

type fkDependencyGraph struct {
	dependencies  []map[int]struct{}
	indexByTable  map[qualifiedNameKey]int
}

// applyCreateCycleFallback breaks a foreign-key cycle among a batch of
// CreateTable ops by deferring the cycle-forming foreign keys to separate
// AddForeignKey ops appended after every table in the batch has been
// created, so the CREATE TABLE statements themselves don't need to
// reference a table that doesn't exist yet.
func applyCreateCycleFallback(ops []DiffOp) []DiffOp {
	type positioned struct {
		position int
		table    ir.Table
	}
	var createTablePositions []positioned
	for idx, op := range ops {
		if create, ok := op.(CreateTableOp); ok {
			createTablePositions = append(createTablePositions, positioned{position: idx, table: create.Table})
		}
	}
	if len(createTablePositions) < 2 {
		return ops
	}

	createTables := make([]ir.Table, len(createTablePositions))
	for i, p := range createTablePositions {
		createTables[i] = p.table
	}
	graph := buildFkDependencyGraph(createTables)
	cyclicEdges := findCyclicEdges(graph.dependencies)
	if len(cyclicEdges) == 0 {
		return ops
	}

	nodeByPosition := make(map[int]int, len(createTablePositions))
	for nodeIdx, p := range createTablePositions {
		nodeByPosition[p.position] = nodeIdx
	}

	createOps := make([]DiffOp, 0, len(ops))
	var addFkOps []DiffOp

	for position, op := range ops {
		create, ok := op.(CreateTableOp)
		if !ok {
			createOps = append(createOps, op)
			continue
		}

		table := create.Table
		nodeIdx, ok := nodeByPosition[position]
		if !ok {
			panic("diff: create table position must be indexed")
		}
		sourceKey := qualifiedNameKeyFrom(table.Name)

		retainedFks := make([]ir.ForeignKey, 0, len(table.ForeignKeys))
		for _, fk := range table.ForeignKeys {
			targetKey := qualifiedNameKeyFrom(fk.ReferencedTable)
			if targetKey == sourceKey {
				retainedFks = append(retainedFks, fk)
				continue
			}

			targetIdx, ok := graph.indexByTable[targetKey]
			if !ok {
				retainedFks = append(retainedFks, fk)
				continue
			}

			if _, cyclic := cyclicEdges[[2]int{nodeIdx, targetIdx}]; cyclic {
				addFkOps = append(addFkOps, AddForeignKeyOp{Table: table.Name, FK: fk})
			} else {
				retainedFks = append(retainedFks, fk)
			}
		}

		table.ForeignKeys = retainedFks
		createOps = append(createOps, CreateTableOp{Table: table})
	}

	return append(createOps, addFkOps...)
}

// dropFKOpsForDropTableCycles emits explicit DropForeignKey ops for any
// foreign key that forms a cycle among a batch of tables being dropped,
// so the DROP TABLE statements don't hit a foreign-key constraint still
// pointing at a table dropped earlier in the batch.
func dropFKOpsForDropTableCycles(tablesToDrop []*ir.Table) []DiffOp {
	if len(tablesToDrop) < 2 {
		return nil
	}

	tables := make([]ir.Table, len(tablesToDrop))
	for i, t := range tablesToDrop {
		tables[i] = *t
	}
	graph := buildFkDependencyGraph(tables)
	cyclicEdges := findCyclicEdges(graph.dependencies)
	if len(cyclicEdges) == 0 {
		return nil
	}

	var dropFkOps []DiffOp
	for sourceIdx, table := range tablesToDrop {
		sourceKey := qualifiedNameKeyFrom(table.Name)
		for _, fk := range table.ForeignKeys {
			if fk.Name == nil {
				continue
			}

			targetKey := qualifiedNameKeyFrom(fk.ReferencedTable)
			if targetKey == sourceKey {
				continue
			}

			targetIdx, ok := graph.indexByTable[targetKey]
			if !ok {
				continue
			}

			if _, cyclic := cyclicEdges[[2]int{sourceIdx, targetIdx}]; cyclic {
				dropFkOps = append(dropFkOps, DropForeignKeyOp{Table: table.Name, Name: *fk.Name})
			}
		}
	}

	return dropFkOps
}

func buildFkDependencyGraph(tables []ir.Table) fkDependencyGraph {
	indexByTable := make(map[qualifiedNameKey]int, len(tables))
	for idx, table := range tables {
		indexByTable[qualifiedNameKeyFrom(table.Name)] = idx
	}

	dependencies := make([]map[int]struct{}, len(tables))
	for idx, table := range tables {
		dependencies[idx] = make(map[int]struct{})
		sourceKey := qualifiedNameKeyFrom(table.Name)
		for _, fk := range table.ForeignKeys {
			targetKey := qualifiedNameKeyFrom(fk.ReferencedTable)
			if targetKey == sourceKey {
				continue
			}
			if targetIdx, ok := indexByTable[targetKey]; ok {
				dependencies[idx][targetIdx] = struct{}{}
			}
		}
	}

	return fkDependencyGraph{dependencies: dependencies, indexByTable: indexByTable}
}

func findCyclicEdges(dependencies []map[int]struct{}) map[[2]int]struct{} {
	cyclicEdges := make(map[[2]int]struct{})

	for sourceIdx, targets := range dependencies {
		for targetIdx := range targets {
			if canReach(targetIdx, sourceIdx, dependencies) {
				cyclicEdges[[2]int{sourceIdx, targetIdx}] = struct{}{}
			}
		}
	}

	return cyclicEdges
}

func canReach(start, target int, dependencies []map[int]struct{}) bool {
	stack := []int{start}
	visited := make(map[int]struct{})

	for len(stack) > 0 {
		nodeIdx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if nodeIdx == target {
			return true
		}

		if _, seen := visited[nodeIdx]; seen {
			continue
		}
		visited[nodeIdx] = struct{}{}

		for nextIdx := range dependencies[nodeIdx] {
			if _, seen := visited[nextIdx]; !seen {
				stack = append(stack, nextIdx)
			}
		}
	}

	return false
}
