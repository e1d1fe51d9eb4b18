package statement

import (
	"strconv"
	"strings"

	"github.com/andruche/pgagent-yaml/errors"
)

// Expr is SQL text placed into a statement verbatim, such as a by-name sub-query.
type Expr string

// Quote renders v as a SQL literal: nil as null, strings single-quoted with
// embedded quotes doubled, booleans and integers as bare tokens.
func Quote(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'", nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	}
	return "", errors.Mark(errors.Newf("cannot quote value of type %T", v), errors.ErrUnsupportedLiteral)
}

func literal(v any) (string, error) {
	if e, ok := v.(Expr); ok {
		return string(e), nil
	}
	return Quote(v)
}

// IDByName is a sub-query resolving the id of the row of t named name.
func IDByName(t Table, name string) (Expr, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.Mark(
			errors.Newf("empty %s name", t.Name),
			errors.ErrUnresolvedReference,
		)
	}
	q, err := Quote(name)
	if err != nil {
		return "", err
	}
	return Expr("(select " + t.IDColumn + " from " + t.Name + " where " + t.NameColumn + " = " + q + ")"), nil
}
