package ingest

import (
	"github.com/xwb1989/sqlparser"
)

// ExtractRows parses one dump line as a single SQL statement.
//
// If it is a well-formed INSERT ... VALUES statement, it returns its row
// tuples as [Literal] cells with ok=true. Any other statement shape — CREATE
// TABLE, LOCK TABLES, a blank line, a statement sqlparser cannot parse at
// all — is ordinary dump noise: ok=false, malformed=false, not a warning.
// An INSERT statement whose VALUES sqlparser parses but a cell doesn't fold
// into a [Literal] (a function call, an unrecognized expression) is
// corruption in otherwise row-shaped data: ok=false, malformed=true. Callers
// count the malformed case as a per-line parse warning; they must not count
// the merely-not-an-INSERT case, which is most of every dump file.
func ExtractRows(line string) (rows [][]Literal, ok bool, malformed bool) {
	stmt, err := sqlparser.Parse(line)
	if err != nil {
		return nil, false, false
	}

	insert, isInsert := stmt.(*sqlparser.Insert)
	if !isInsert {
		return nil, false, false
	}

	values, isValues := insert.Rows.(sqlparser.Values)
	if !isValues {
		return nil, false, true
	}

	out := make([][]Literal, 0, len(values))
	for _, tuple := range values {
		row := make([]Literal, 0, len(tuple))
		for _, expr := range tuple {
			lit, ok := literalFromExpr(expr)
			if !ok {
				// A cell we don't recognize (a function call, an
				// expression) makes the whole row unparseable.
				return nil, false, true
			}
			row = append(row, lit)
		}
		out = append(out, row)
	}

	return out, true, false
}

// literalFromExpr folds the small subset of sqlparser.Expr the dump format
// actually produces into a [Literal]: plain integers and strings, NULL, and
// unary-minus(integer).
func literalFromExpr(expr sqlparser.Expr) (Literal, bool) {
	switch v := expr.(type) {
	case *sqlparser.SQLVal:
		return sqlValLiteral(v)
	case *sqlparser.NullVal:
		return Literal{Kind: KindNull}, true
	case *sqlparser.UnaryExpr:
		if v.Operator != sqlparser.UMinusStr {
			return Literal{}, false
		}
		inner, ok := v.Expr.(*sqlparser.SQLVal)
		if !ok || inner.Type != sqlparser.IntVal {
			return Literal{}, false
		}
		n, ok := parseInt(inner.Val)
		if !ok {
			return Literal{}, false
		}
		return Literal{Kind: KindNegatedInteger, Int: n}, true
	default:
		return Literal{}, false
	}
}

func sqlValLiteral(v *sqlparser.SQLVal) (Literal, bool) {
	switch v.Type {
	case sqlparser.IntVal:
		// sqlparser folds "-3" into a single IntVal "-3" rather than a
		// UnaryExpr, so the sign has to be recognized here too.
		if len(v.Val) > 0 && v.Val[0] == '-' {
			n, ok := parseInt(v.Val[1:])
			if !ok {
				return Literal{}, false
			}
			return Literal{Kind: KindNegatedInteger, Int: n}, true
		}
		n, ok := parseInt(v.Val)
		if !ok {
			return Literal{}, false
		}
		return Literal{Kind: KindInteger, Int: n}, true
	case sqlparser.StrVal:
		return Literal{Kind: KindString, Str: string(v.Val)}, true
	default:
		// FloatVal, HexVal, HexNum, BitVal, ValArg: never appear in the
		// dumps this pipeline consumes.
		return Literal{}, false
	}
}

func parseInt(b []byte) (int64, bool) {
	var n int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
	}
	return n, true
}
