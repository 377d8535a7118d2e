package expr

import (
	"sort"

	"github.com/andreyvit/packdb/schema"
)

type builtin struct {
	params []Ty
	result Ty
	eval   func(ctx *EvalCtx, args []Value) Value
}

// Arguments are type-checked before eval is called.
var builtins = map[string]*builtin{
	"now": {
		result: tyTimestamp,
		eval: func(ctx *EvalCtx, args []Value) Value {
			return FieldVal(schema.TimestampValue(ctx.Now))
		},
	},
	// str_len counts bytes of the UTF-8 encoding.
	"str_len": {
		params: []Ty{tyText},
		result: tyInt,
		eval: func(ctx *EvalCtx, args []Value) Value {
			return FieldVal(schema.IntValue(int32(len(args[0].Field.Text()))))
		},
	},
}

// FunctionNames lists the built-in functions.
func FunctionNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
