package packdb

import (
	"fmt"
	"maps"
	"slices"

	"github.com/andreyvit/packdb/schema"
)

const (
	tablesBucket = "$tables"
	metaBucket   = "$meta"
)

// catalog is an immutable snapshot of the registered tables together with
// everything derived from them. A schema change builds a new catalog.
type catalog struct {
	defs       map[string]schema.TableDef
	tables     map[string]*schema.Table
	names      []string
	indices    map[string]*schema.IndexDef
	indexNames []string

	// triggers are keyed by the table whose events fire them.
	triggers map[string][]schema.Trigger
}

func buildCatalog(defs map[string]schema.TableDef, extra []schema.Trigger) (*catalog, error) {
	cat := &catalog{
		defs:     defs,
		tables:   make(map[string]*schema.Table, len(defs)),
		names:    slices.Sorted(maps.Keys(defs)),
		indices:  make(map[string]*schema.IndexDef),
		triggers: make(map[string][]schema.Trigger),
	}

	for _, name := range cat.names {
		tbl, err := schema.Compile(name, defs[name])
		if err != nil {
			return nil, err
		}
		cat.tables[name] = tbl
	}

	for _, name := range cat.names {
		for _, idx := range cat.tables[name].Indices() {
			switch idx.OnDelete {
			case schema.OnDeleteNone, schema.OnDeleteCascade:
			default:
				return nil, tableErrf(name, idx.Name, nil, ErrUnsupportedOnDelete, "on_delete %v", idx.OnDelete)
			}
			if other := cat.indices[idx.Name]; other != nil {
				return nil, tableErrf(name, idx.Name, nil, schema.ErrInvalidDef, "index name collides with %s.%s", other.Table, other.Field)
			}
			cat.indices[idx.Name] = idx
			cat.indexNames = append(cat.indexNames, idx.Name)
			for _, t := range idx.Triggers() {
				cat.triggers[t.Table] = append(cat.triggers[t.Table], t)
			}
		}
	}
	slices.Sort(cat.indexNames)

	for _, t := range extra {
		if err := validateTrigger(t); err != nil {
			return nil, err
		}
		cat.triggers[t.Table] = append(cat.triggers[t.Table], t)
	}
	return cat, nil
}

// validateTrigger accepts only user-defined println triggers; index
// maintenance triggers are always derived from table definitions.
func validateTrigger(t schema.Trigger) error {
	if t.Action.Kind != schema.ActionPrintln {
		return fmt.Errorf("%w: %v: only println actions can be configured", ErrInvalidTrigger, t)
	}
	if t.Event != schema.EventInsert && t.Event != schema.EventDelete {
		return fmt.Errorf("%w: %v: unknown event", ErrInvalidTrigger, t)
	}
	if !schema.ValidTableName(t.Table) {
		return fmt.Errorf("%w: %v: invalid table name", ErrInvalidTrigger, t)
	}
	return nil
}

// with returns a catalog that also has the given table.
func (cat *catalog) with(name string, def schema.TableDef, extra []schema.Trigger) (*catalog, error) {
	defs := maps.Clone(cat.defs)
	defs[name] = def
	return buildCatalog(defs, extra)
}

// without returns a catalog that no longer has the given table.
func (cat *catalog) without(name string, extra []schema.Trigger) (*catalog, error) {
	defs := maps.Clone(cat.defs)
	delete(defs, name)
	return buildCatalog(defs, extra)
}

// referencing lists the indices of other tables that point at the given table.
func (cat *catalog) referencing(name string) []*schema.IndexDef {
	var result []*schema.IndexDef
	for _, idxName := range cat.indexNames {
		idx := cat.indices[idxName]
		if idx.IsReference() && idx.FieldTy.Table == name && idx.Table != name {
			result = append(result, idx)
		}
	}
	return result
}

func (cat *catalog) tableIndices(name string) []*schema.IndexDef {
	var result []*schema.IndexDef
	for _, idxName := range cat.indexNames {
		if idx := cat.indices[idxName]; idx.Table == name {
			result = append(result, idx)
		}
	}
	return result
}
