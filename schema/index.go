package schema

import "fmt"

// OnDelete is the action taken on referencing records when a referenced
// record is deleted.
type OnDelete uint8

const (
	OnDeleteNone OnDelete = iota
	OnDeleteCascade
	OnDeleteSetNone
)

func (v OnDelete) String() string {
	switch v {
	case OnDeleteNone:
		return "none"
	case OnDeleteCascade:
		return "cascade"
	case OnDeleteSetNone:
		return "set_none"
	default:
		return fmt.Sprintf("OnDelete(%d)", uint8(v))
	}
}

// IndexDef describes a secondary index over one field of one table. Indices
// are derived from table definitions and never declared directly.
type IndexDef struct {
	Name     string
	Table    string
	Field    string
	FieldTy  FieldTy
	OnDelete OnDelete
}

// IndexNameSep separates the table and the field in an index name. Neither
// table nor field names may contain it, so index names never collide.
const IndexNameSep = ":"

func IndexName(table, field string) string {
	return "#" + table + IndexNameSep + field
}

// IsReference reports whether the index maps referenced ids to referencing records.
func (idx *IndexDef) IsReference() bool {
	return idx.FieldTy.Kind == RecordID
}

func (idx *IndexDef) String() string {
	return idx.Name
}

// Indices derives the table's indices in field order. Every RecordID field is
// indexed with cascading deletes; other fields only when HasIndex is set.
func (t *Table) Indices() []*IndexDef {
	var result []*IndexDef
	for _, f := range t.Fields {
		switch {
		case f.Ty.Kind == RecordID:
			result = append(result, &IndexDef{
				Name:     IndexName(t.Name, f.Name),
				Table:    t.Name,
				Field:    f.Name,
				FieldTy:  f.Ty,
				OnDelete: OnDeleteCascade,
			})
		case f.HasIndex:
			result = append(result, &IndexDef{
				Name:     IndexName(t.Name, f.Name),
				Table:    t.Name,
				Field:    f.Name,
				FieldTy:  f.Ty,
				OnDelete: OnDeleteNone,
			})
		}
	}
	return result
}

type Event uint8

const (
	EventInsert Event = iota + 1
	EventDelete
)

func (e Event) String() string {
	switch e {
	case EventInsert:
		return "insert"
	case EventDelete:
		return "delete"
	default:
		return fmt.Sprintf("Event(%d)", uint8(e))
	}
}

type ActionKind uint8

const (
	ActionInsertIntoIndex ActionKind = iota + 1
	ActionDeleteValueFromIndex
	ActionDeleteKeyFromIndex
	ActionPrintln
)

// Action is what a trigger does. Index is set for index actions, Text for
// ActionPrintln.
type Action struct {
	Kind  ActionKind
	Index string
	Text  string
}

func (a Action) String() string {
	switch a.Kind {
	case ActionInsertIntoIndex:
		return "insert_into_index(" + a.Index + ")"
	case ActionDeleteValueFromIndex:
		return "delete_value_from_index(" + a.Index + ")"
	case ActionDeleteKeyFromIndex:
		return "delete_key_from_index(" + a.Index + ")"
	case ActionPrintln:
		return fmt.Sprintf("println(%q)", a.Text)
	default:
		return fmt.Sprintf("Action(%d)", uint8(a.Kind))
	}
}

// Trigger runs Action whenever Event happens to a record of Table.
type Trigger struct {
	Table  string
	Event  Event
	Action Action
}

func (t Trigger) String() string {
	return fmt.Sprintf("on %s %s: %v", t.Event, t.Table, t.Action)
}

// Triggers returns the triggers maintaining idx: insert and delete on the
// owning table, plus key deletion on the referenced table for references.
func (idx *IndexDef) Triggers() []Trigger {
	result := []Trigger{
		{Table: idx.Table, Event: EventInsert, Action: Action{Kind: ActionInsertIntoIndex, Index: idx.Name}},
		{Table: idx.Table, Event: EventDelete, Action: Action{Kind: ActionDeleteValueFromIndex, Index: idx.Name}},
	}
	if idx.IsReference() {
		result = append(result, Trigger{
			Table:  idx.FieldTy.Table,
			Event:  EventDelete,
			Action: Action{Kind: ActionDeleteKeyFromIndex, Index: idx.Name},
		})
	}
	return result
}
