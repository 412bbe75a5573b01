package condition

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Table keys recognised in an enabled_if object.
const (
	KeyFileExists    = "file_exists"
	KeyDirExists     = "dir_exists"
	KeyCommandExists = "command_exists"
	KeyAll           = "all"
	KeyAny           = "any"
	KeyNot           = "not"
)

// keyOrder fixes the order in which several keys of one table are combined.
var keyOrder = []string{KeyFileExists, KeyDirExists, KeyCommandExists, KeyAll, KeyAny, KeyNot}

// ErrInvalidCondition is wrapped by every decoding failure.
var ErrInvalidCondition = errors.New("invalid condition")

// Decode converts a loosely-typed table, as produced by a TOML decoder, into
// an expression tree. A table with several keys is an implicit All in
// keyOrder. Unknown keys and wrongly typed values are rejected.
func Decode(table map[string]any) (Expr, error) {
	return decodeTable(table, "enabled_if")
}

func decodeTable(table map[string]any, path string) (Expr, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: %s: empty condition", ErrInvalidCondition, path)
	}

	var unknown []string
	for k := range table {
		if !isKnownKey(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s: unknown key(s) %s", ErrInvalidCondition, path, strings.Join(unknown, ", "))
	}

	var exprs []Expr
	for _, key := range keyOrder {
		raw, ok := table[key]
		if !ok {
			continue
		}
		e, err := decodeKey(key, raw, path+"."+key)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return All{Exprs: exprs}, nil
}

func decodeKey(key string, raw any, path string) (Expr, error) {
	switch key {
	case KeyFileExists, KeyDirExists, KeyCommandExists:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s: expected string, got %T", ErrInvalidCondition, path, raw)
		}
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%w: %s: must not be empty", ErrInvalidCondition, path)
		}
		switch key {
		case KeyFileExists:
			return FileExists{Path: s}, nil
		case KeyDirExists:
			return DirExists{Path: s}, nil
		default:
			return CommandExists{Name: s}, nil
		}
	case KeyAll, KeyAny:
		list, err := decodeList(raw, path)
		if err != nil {
			return nil, err
		}
		if key == KeyAll {
			return All{Exprs: list}, nil
		}
		return Any{Exprs: list}, nil
	case KeyNot:
		table, ok := asTable(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %s: expected table, got %T", ErrInvalidCondition, path, raw)
		}
		inner, err := decodeTable(table, path)
		if err != nil {
			return nil, err
		}
		return Not{Expr: inner}, nil
	}
	return nil, fmt.Errorf("%w: %s: unknown key", ErrInvalidCondition, path)
}

func decodeList(raw any, path string) ([]Expr, error) {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []map[string]any:
		items = make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
	default:
		return nil, fmt.Errorf("%w: %s: expected array of tables, got %T", ErrInvalidCondition, path, raw)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s: needs at least one condition", ErrInvalidCondition, path)
	}

	out := make([]Expr, 0, len(items))
	for i, item := range items {
		table, ok := asTable(item)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d]: expected table, got %T", ErrInvalidCondition, path, i, item)
		}
		e, err := decodeTable(table, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func asTable(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func isKnownKey(k string) bool {
	for _, known := range keyOrder {
		if k == known {
			return true
		}
	}
	return false
}

// Encode converts an expression back into the table form accepted by Decode.
func Encode(e Expr) map[string]any {
	switch v := e.(type) {
	case FileExists:
		return map[string]any{KeyFileExists: v.Path}
	case DirExists:
		return map[string]any{KeyDirExists: v.Path}
	case CommandExists:
		return map[string]any{KeyCommandExists: v.Name}
	case All:
		return map[string]any{KeyAll: encodeList(v.Exprs)}
	case Any:
		return map[string]any{KeyAny: encodeList(v.Exprs)}
	case Not:
		return map[string]any{KeyNot: Encode(v.Expr)}
	}
	return nil
}

func encodeList(exprs []Expr) []map[string]any {
	out := make([]map[string]any, len(exprs))
	for i, e := range exprs {
		out[i] = Encode(e)
	}
	return out
}
