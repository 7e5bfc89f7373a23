package diff

import (
	"github.com/schemadrift/schemadrift/diffcfg"
	"github.com/schemadrift/schemadrift/ir"
)

func diffPartition(table ir.QualifiedName, desired, current *ir.Partition, config diffcfg.DiffConfig, ops *[]DiffOp) {
	switch {
	case desired != nil && current == nil:
		*ops = append(*ops, AddPartitionOp{Table: table, Partition: *desired})
	case desired == nil && current != nil:
		if config.EnableDrop {
			emitPartitionDrops(table, current.Partitions, ops)
		}
	case desired != nil && current != nil:
		comparePartitionUpdates(table, *desired, *current, config, ops)
	}
}

func comparePartitionUpdates(table ir.QualifiedName, desired, current ir.Partition, config diffcfg.DiffConfig, ops *[]DiffOp) {
	if !partitionKeysEqual(desired, current) {
		if config.EnableDrop {
			emitPartitionDrops(table, current.Partitions, ops)
		}
		*ops = append(*ops, AddPartitionOp{Table: table, Partition: desired})
		return
	}

	desiredByName := mapPartitionElementsByName(desired.Partitions)
	currentByName := mapPartitionElementsByName(current.Partitions)

	for _, name := range sortedIdentKeys(desiredByName) {
		desiredElement := desiredByName[name]
		if currentElement, ok := currentByName[name]; ok {
			if partitionElementChanged(desiredElement, currentElement) {
				if config.EnableDrop {
					*ops = append(*ops, DropPartitionOp{Table: table, Name: currentElement.Name})
				}
				*ops = append(*ops, addPartitionForElement(table, desired, desiredElement))
			}
		} else {
			*ops = append(*ops, addPartitionForElement(table, desired, desiredElement))
		}
	}

	if config.EnableDrop {
		for _, name := range sortedIdentKeys(currentByName) {
			if _, ok := desiredByName[name]; !ok {
				*ops = append(*ops, DropPartitionOp{Table: table, Name: currentByName[name].Name})
			}
		}
	}
}

func partitionKeysEqual(desired, current ir.Partition) bool {
	if desired.Strategy != current.Strategy {
		return false
	}
	if len(desired.Columns) != len(current.Columns) {
		return false
	}
	for i := range desired.Columns {
		if !identEqualStrict(desired.Columns[i], current.Columns[i]) {
			return false
		}
	}
	return true
}

func mapPartitionElementsByName(elements []ir.PartitionElement) map[identKey]ir.PartitionElement {
	byName := make(map[identKey]ir.PartitionElement, len(elements))
	for _, element := range elements {
		byName[identKeyFrom(element.Name)] = element
	}
	return byName
}

func sortedIdentKeys(m map[identKey]ir.PartitionElement) []identKey {
	keys := make([]identKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortIdentKeys(keys)
	return keys
}

func sortIdentKeys(keys []identKey) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && identKeyLess(keys[j], keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
}

func partitionElementChanged(desired, current ir.PartitionElement) bool {
	return !ir.StructuralEqual(desired.Bound, current.Bound) || !ir.StructuralEqual(desired.Extra, current.Extra)
}

func addPartitionForElement(table ir.QualifiedName, sourcePartition ir.Partition, element ir.PartitionElement) DiffOp {
	return AddPartitionOp{
		Table: table,
		Partition: ir.Partition{
			Strategy:   sourcePartition.Strategy,
			Columns:    sourcePartition.Columns,
			Partitions: []ir.PartitionElement{element},
		},
	}
}

func emitPartitionDrops(table ir.QualifiedName, elements []ir.PartitionElement, ops *[]DiffOp) {
	for _, element := range elements {
		*ops = append(*ops, DropPartitionOp{Table: table, Name: element.Name})
	}
}
