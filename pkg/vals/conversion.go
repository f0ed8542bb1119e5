package vals

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/xiaq/persistent/hash"
	"github.com/xiaq/persistent/hashmap"
	"github.com/xiaq/persistent/vector"
)

// Values handled by this package are the native Go types string, int, float64
// and bool, vector.Vector for lists and hashmap.Map for maps. Values coming
// from elsewhere (YAML documents, decoded snapshots) are converted with
// FromGo.

// EmptyMap is an empty map with string keys.
var EmptyMap = hashmap.New(Equal, Hash)

// EmptyList is an empty list.
var EmptyList = vector.Empty

type wrongType struct {
	want string
	got  string
}

func (err wrongType) Error() string {
	return fmt.Sprintf("wrong type: need %s, got %s", err.want, err.got)
}

type cannotParseAs struct {
	want string
	repr string
}

func (err cannotParseAs) Error() string {
	return fmt.Sprintf("cannot parse as %s: %s", err.want, err.repr)
}

var (
	errMustBeNumber  = errors.New("must be number")
	errMustBeInteger = errors.New("must be integer")
)

// Kind returns a short name of the kind of the value.
func Kind(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case string:
		return "string"
	case int, float64:
		return "number"
	case bool:
		return "bool"
	case vector.Vector:
		return "list"
	case hashmap.Map:
		return "map"
	default:
		return fmt.Sprintf("!!%T", v)
	}
}

// Scan converts src to the type ptr points to, and stores it there. Numbers
// are converted between int, float64 and string; bool accepts "true" and
// "false". For other destination types src must already be assignable.
func Scan(src any, ptr any) error {
	switch ptr := ptr.(type) {
	case *string:
		s, ok := src.(string)
		if !ok {
			switch src.(type) {
			case int, float64, bool:
				s = ToString(src)
			default:
				return wrongType{"string", Kind(src)}
			}
		}
		*ptr = s
		return nil
	case *int:
		i, err := toInt(src)
		if err == nil {
			*ptr = i
		}
		return err
	case *float64:
		f, err := toFloat(src)
		if err == nil {
			*ptr = f
		}
		return err
	case *bool:
		switch src := src.(type) {
		case bool:
			*ptr = src
			return nil
		case string:
			b, err := strconv.ParseBool(src)
			if err != nil {
				return cannotParseAs{"bool", strconv.Quote(src)}
			}
			*ptr = b
			return nil
		}
		return wrongType{"bool", Kind(src)}
	case *any:
		*ptr = src
		return nil
	default:
		ptrValue := reflect.ValueOf(ptr)
		if ptrValue.Kind() != reflect.Ptr {
			return fmt.Errorf("internal bug: need pointer to scan to, got %T", ptr)
		}
		dst := ptrValue.Elem()
		if src == nil || !reflect.TypeOf(src).AssignableTo(dst.Type()) {
			return wrongType{dst.Type().String(), Kind(src)}
		}
		dst.Set(reflect.ValueOf(src))
		return nil
	}
}

func toInt(src any) (int, error) {
	switch src := src.(type) {
	case int:
		return src, nil
	case float64:
		i := int(src)
		if float64(i) != src {
			return 0, errMustBeInteger
		}
		return i, nil
	case string:
		i, err := strconv.ParseInt(src, 0, 0)
		if err == nil {
			return int(i), nil
		}
		f, err := strconv.ParseFloat(src, 64)
		if err == nil && f == math.Trunc(f) {
			return int(f), nil
		}
		return 0, cannotParseAs{"integer", strconv.Quote(src)}
	default:
		return 0, errMustBeNumber
	}
}

func toFloat(src any) (float64, error) {
	switch src := src.(type) {
	case float64:
		return src, nil
	case int:
		return float64(src), nil
	case string:
		f, err := strconv.ParseFloat(src, 64)
		if err == nil {
			return f, nil
		}
		i, err := strconv.ParseInt(src, 0, 64)
		if err == nil {
			return float64(i), nil
		}
		return 0, cannotParseAs{"number", strconv.Quote(src)}
	default:
		return 0, errMustBeNumber
	}
}

// ToNumber converts a value to a number, which is either an int or a float64.
func ToNumber(v any) (any, bool) {
	switch v := v.(type) {
	case int, float64:
		return v, true
	case string:
		if i, err := strconv.ParseInt(v, 10, 0); err == nil {
			return int(i), true
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
	}
	return nil, false
}

// ToString converts a value to its textual form.
func ToString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case vector.Vector:
		s := ""
		for it := v.Iterator(); it.HasElem(); it.Next() {
			s += ToString(it.Elem())
		}
		return s
	default:
		return fmt.Sprint(v)
	}
}

// Truthy reports whether a value counts as true in a condition. The empty
// string, zero numbers, false, nil and empty containers are false.
func Truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case float64:
		return v != 0
	case vector.Vector:
		return v.Len() > 0
	case hashmap.Map:
		return v.Len() > 0
	default:
		return true
	}
}

// Len returns the length of a list value.
func Len(v any) (int, bool) {
	switch v := v.(type) {
	case vector.Vector:
		return v.Len(), true
	case interface{ Len() int }:
		return v.Len(), true
	default:
		return 0, false
	}
}

// Equal reports whether two values are equal. Numbers of different types are
// compared by value.
func Equal(x, y any) bool {
	switch x := x.(type) {
	case int:
		if y, ok := y.(float64); ok {
			return float64(x) == y
		}
	case float64:
		if y, ok := y.(int); ok {
			return x == float64(y)
		}
	case Path:
		y, ok := y.(Path)
		return ok && x == y
	case vector.Vector:
		y, ok := y.(vector.Vector)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i := 0; i < x.Len(); i++ {
			a, _ := x.Index(i)
			b, _ := y.Index(i)
			if !Equal(a, b) {
				return false
			}
		}
		return true
	case hashmap.Map:
		y, ok := y.(hashmap.Map)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for it := x.Iterator(); it.HasElem(); it.Next() {
			k, a := it.Elem()
			b, ok := y.Index(k)
			if !ok || !Equal(a, b) {
				return false
			}
		}
		return true
	}
	return x == y
}

// Hash returns a 32-bit hash of a value. Unsupported values hash to 0, which
// is still correct for use in maps.
func Hash(v any) uint32 {
	switch v := v.(type) {
	case string:
		return hash.String(v)
	case int:
		return hash.UInt64(uint64(v))
	case float64:
		return hash.UInt64(math.Float64bits(v))
	case bool:
		if v {
			return 1
		}
		return 0
	case Path:
		return v.Hash()
	default:
		return 0
	}
}

// FromGo converts plain Go data, as produced by decoders, to values handled by
// this package: integer types become int, float32 becomes float64, slices
// become lists and maps with string keys become maps.
func FromGo(v any) (any, error) {
	switch v := v.(type) {
	case nil, string, bool, int, float64, vector.Vector, hashmap.Map:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case int32:
		return int(v), nil
	case uint32:
		return int(v), nil
	case float32:
		return float64(v), nil
	case []any:
		list := vector.Empty
		for _, elem := range v {
			conv, err := FromGo(elem)
			if err != nil {
				return nil, err
			}
			list = list.Cons(conv)
		}
		return list, nil
	case map[string]any:
		m := EmptyMap
		for k, elem := range v {
			conv, err := FromGo(elem)
			if err != nil {
				return nil, err
			}
			m = m.Assoc(k, conv)
		}
		return m, nil
	case map[any]any:
		m := EmptyMap
		for k, elem := range v {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("map key must be string, got %s", Kind(k))
			}
			conv, err := FromGo(elem)
			if err != nil {
				return nil, err
			}
			m = m.Assoc(ks, conv)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

// ToGo is the inverse of FromGo: lists become []any and maps become
// map[string]any.
func ToGo(v any) any {
	switch v := v.(type) {
	case vector.Vector:
		s := make([]any, 0, v.Len())
		for it := v.Iterator(); it.HasElem(); it.Next() {
			s = append(s, ToGo(it.Elem()))
		}
		return s
	case hashmap.Map:
		m := make(map[string]any, v.Len())
		for it := v.Iterator(); it.HasElem(); it.Next() {
			k, elem := it.Elem()
			m[k.(string)] = ToGo(elem)
		}
		return m
	default:
		return v
	}
}
