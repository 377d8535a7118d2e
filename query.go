package packdb

import (
	"time"

	"github.com/andreyvit/packdb/expr"
	"github.com/andreyvit/packdb/queryparse"
	"github.com/andreyvit/packdb/schema"
	"github.com/google/uuid"
)

// QueryResult holds the records that matched a query, in id order. When the
// query has a group_by expression, Groups partitions the same records by
// its value, in order of first appearance.
type QueryResult struct {
	Table   *schema.Table
	Records []schema.Record
	Groups  []Group
}

type Group struct {
	Key     expr.Value
	Records []schema.Record
}

// groupKey makes an expr.Value usable as a map key. Records are compared
// by table, id and contents.
type groupKey struct {
	field schema.FieldValue
	table string
	id    uuid.UUID
	data  string
}

func makeGroupKey(v expr.Value) groupKey {
	if !v.IsRecord() {
		return groupKey{field: v.Field}
	}
	return groupKey{
		table: v.Record.Table.Name,
		id:    v.Record.Record.ID,
		data:  string(v.Record.Record.Bytes),
	}
}

// Query parses and runs a textual query such as
// `query users where users.age > 30 group_by users.active`.
func (db *DB) Query(text string) (*QueryResult, error) {
	q, err := queryparse.Parse(text)
	if err != nil {
		return nil, err
	}
	return db.RunQuery(q)
}

// RunQuery evaluates q against every record of its table. The filter must be
// Bool-typed; now() returns the same instant for the whole query. Bare names
// in q resolve to the queried table or to its fields. An evaluation error on
// any row fails the whole query.
func (db *DB) RunQuery(q *expr.Query) (*QueryResult, error) {
	var result *QueryResult
	err := db.read(func(tx *dbTx) error {
		tbl, err := tx.table(q.Table)
		if err != nil {
			return err
		}
		if err := q.CheckFilter(&expr.TyCtx{Tables: tx.cat.tables, Bound: []string{tbl.Name}}); err != nil {
			return err
		}

		result = &QueryResult{Table: tbl}
		ctx := expr.NewEvalCtx(tx.cat.tables, time.Now())
		groups := make(map[groupKey]int)

		return tx.scanRecords(tbl, func(rec schema.Record) error {
			ctx.Bind(tbl, rec)
			if q.Filter != nil {
				ok, err := evalFilter(q.Filter, ctx)
				if err != nil || !ok {
					return err
				}
			}
			result.Records = append(result.Records, rec)

			if q.GroupBy == nil {
				return nil
			}
			v, err := q.GroupBy.Eval(ctx)
			if err != nil {
				return err
			}
			k := makeGroupKey(v)
			i, found := groups[k]
			if !found {
				i = len(result.Groups)
				groups[k] = i
				result.Groups = append(result.Groups, Group{Key: v})
			}
			result.Groups[i].Records = append(result.Groups[i].Records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func evalFilter(filter expr.Expr, ctx *expr.EvalCtx) (bool, error) {
	v, err := filter.Eval(ctx)
	if err != nil {
		return false, err
	}
	if v.IsRecord() || v.Field.Kind() != schema.Bool {
		want := expr.FieldType(schema.TyBool)
		return false, &expr.TypeMismatchError{Found: v.Ty(), Expected: &want}
	}
	return v.Field.Bool(), nil
}
