// Package filterexpr binds AIP-160 style filter and order_by strings onto
// typed query parameter structs. Filters are parsed with cel-go, restricted
// to AND-joined comparisons over whitelisted fields, and assigned to struct
// fields by name via reflection.
package filterexpr

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Msg is any request carrying raw filter and order_by inputs.
type Msg interface {
	GetFilter() string
	GetOrderBy() string
}

// ValueKind is the literal type a filter field accepts.
type ValueKind string

const (
	KindString    ValueKind = "string"
	KindNumber    ValueKind = "number"
	KindTimestamp ValueKind = "timestamp"
)

// Op is a supported comparison operation.
type Op string

const (
	OpEQ  Op = "=="
	OpGTE Op = ">="
	OpLTE Op = "<="
	OpSW  Op = "startsWith"
	OpIN  Op = "in"
)

// SetterFunc customizes how a parsed literal lands on a struct field.
type SetterFunc func(field reflect.Value, value any) error

// FilterField whitelists one filterable field: which operations it accepts
// and which params-struct field each operation writes to.
type FilterField struct {
	Kind   ValueKind
	Ops    map[Op]string
	Setter SetterFunc
}

// OrderField maps an order key to its SQL expression.
type OrderField struct {
	Expr  string
	Nulls string
}

// OrderSchema lists the sortable keys and the defaults applied when the
// request leaves order_by empty.
type OrderSchema struct {
	DefaultPrimary     string
	DefaultPrimaryDesc bool
	FallbackKey        string
	FallbackDesc       bool
	Fields             map[string]OrderField
}

// ResourceSchema aggregates the filter and order rules of one list endpoint.
type ResourceSchema struct {
	Filter map[string]FilterField
	Order  OrderSchema
}

var timeType = reflect.TypeOf(time.Time{})

// Bind parses msg's filter and order_by and populates the params struct.
func Bind[M Msg, P any](msg M, params *P, schema ResourceSchema) error {
	if params == nil {
		return errors.New("params must not be nil")
	}

	if err := bindFilter(params, msg.GetFilter(), schema.Filter); err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	order, err := parseOrderBy(msg.GetOrderBy(), schema.Order)
	if err != nil {
		return fmt.Errorf("order_by: %w", err)
	}
	return applyOrder(params, order)
}

func bindFilter(params any, filter string, fields map[string]FilterField) error {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil
	}
	if len(fields) == 0 {
		return errors.New("no filterable fields defined")
	}

	env, err := buildEnv(fields)
	if err != nil {
		return err
	}

	ast, issues := env.Parse(filter)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("invalid filter: %w", issues.Err())
	}
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return fmt.Errorf("failed to convert AST: %w", err)
	}

	conjuncts, err := splitConjuncts(parsed.GetExpr())
	if err != nil {
		return err
	}

	dest, err := structValue(params)
	if err != nil {
		return err
	}

	for _, expr := range conjuncts {
		pred, err := parsePredicate(expr)
		if err != nil {
			return err
		}

		rule, ok := fields[pred.field]
		if !ok {
			return fmt.Errorf("field %q is not allowed", pred.field)
		}
		target, ok := rule.Ops[pred.op]
		if !ok {
			return fmt.Errorf("operator %q is not allowed for field %q", string(pred.op), pred.field)
		}
		if err := checkLiteral(rule.Kind, pred.op, pred.value); err != nil {
			return fmt.Errorf("field %q: %w", pred.field, err)
		}

		field := dest.FieldByName(target)
		if !field.IsValid() {
			return fmt.Errorf("params struct %s has no field named %q", dest.Type(), target)
		}
		if !field.CanSet() {
			return fmt.Errorf("cannot set field %q on params struct", target)
		}

		if rule.Setter != nil {
			if field.Kind() == reflect.Ptr && field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			if err := rule.Setter(field, pred.value); err != nil {
				return fmt.Errorf("setter for field %q failed: %w", target, err)
			}
			continue
		}
		if err := assignValue(field, pred.value); err != nil {
			return fmt.Errorf("failed to assign field %q: %w", target, err)
		}
	}
	return nil
}

func structValue(params any) (reflect.Value, error) {
	rv := reflect.ValueOf(params)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return reflect.Value{}, errors.New("params must be a non-nil pointer")
	}
	dest := rv.Elem()
	if dest.Kind() != reflect.Struct {
		return reflect.Value{}, errors.New("params must point to a struct")
	}
	return dest, nil
}

type predicate struct {
	field string
	op    Op
	value any
}

func buildEnv(fields map[string]FilterField) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(fields)+1)
	for name, rule := range fields {
		celType, err := celTypeForKind(rule.Kind)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		opts = append(opts, cel.Variable(name, celType))
	}
	opts = append(opts, cel.CrossTypeNumericComparisons(true))
	return cel.NewEnv(opts...)
}

func celTypeForKind(kind ValueKind) (*cel.Type, error) {
	switch kind {
	case KindString:
		return cel.StringType, nil
	case KindNumber:
		return cel.DoubleType, nil
	case KindTimestamp:
		return cel.TimestampType, nil
	default:
		return nil, fmt.Errorf("unsupported field kind %s", kind)
	}
}

// splitConjuncts flattens nested AND chains into a flat predicate list.
// Any other logical operator is rejected.
func splitConjuncts(expr *exprpb.Expr) ([]*exprpb.Expr, error) {
	if expr == nil {
		return nil, errors.New("empty expression")
	}

	call := expr.GetCallExpr()
	if call == nil {
		return []*exprpb.Expr{expr}, nil
	}

	switch call.Function {
	case "_&&_":
		if len(call.Args) < 2 || call.Target != nil {
			return nil, errors.New("logical AND must have at least two operands")
		}
		var result []*exprpb.Expr
		for _, arg := range call.Args {
			nested, err := splitConjuncts(arg)
			if err != nil {
				return nil, err
			}
			result = append(result, nested...)
		}
		return result, nil
	case "_||_", "_?_:_", "!":
		return nil, fmt.Errorf("logical operator %q is not supported; only AND is allowed", call.Function)
	default:
		return []*exprpb.Expr{expr}, nil
	}
}

func parsePredicate(expr *exprpb.Expr) (predicate, error) {
	call := expr.GetCallExpr()
	if call == nil {
		return predicate{}, errors.New("unsupported expression; expected comparison or function call")
	}

	switch call.Function {
	case "_==_":
		return parseBinary(call, OpEQ)
	case "_>=_":
		return parseBinary(call, OpGTE)
	case "_<=_":
		return parseBinary(call, OpLTE)
	case "_in_", "@in":
		field, list, err := splitReceiverCall(call, true)
		if err != nil {
			return predicate{}, err
		}
		fieldName, err := parseFieldIdent(field)
		if err != nil {
			return predicate{}, err
		}
		value, err := parseLiteral(list)
		if err != nil {
			return predicate{}, err
		}
		return predicate{field: fieldName, op: OpIN, value: value}, nil
	case "startsWith":
		field, arg, err := splitReceiverCall(call, false)
		if err != nil {
			return predicate{}, err
		}
		fieldName, err := parseFieldIdent(field)
		if err != nil {
			return predicate{}, err
		}
		value, err := parseLiteral(arg)
		if err != nil {
			return predicate{}, err
		}
		str, ok := value.(string)
		if !ok {
			return predicate{}, errors.New("startsWith requires a string literal argument")
		}
		return predicate{field: fieldName, op: OpSW, value: str}, nil
	default:
		return predicate{}, fmt.Errorf("function %q is not supported", call.Function)
	}
}

func parseBinary(call *exprpb.Expr_Call, op Op) (predicate, error) {
	if call.Target != nil || len(call.Args) != 2 {
		return predicate{}, fmt.Errorf("operator %q expects two operands", string(op))
	}
	fieldName, err := parseFieldIdent(call.Args[0])
	if err != nil {
		return predicate{}, err
	}
	value, err := parseLiteral(call.Args[1])
	if err != nil {
		return predicate{}, err
	}
	return predicate{field: fieldName, op: op, value: value}, nil
}

// splitReceiverCall handles both `f(x, y)` and `x.f(y)` AST shapes. When
// receiverIsValue is true the receiver form carries the value, as with the
// `in` macro where cel rewrites `x in list` into `list.contains`-like shape.
func splitReceiverCall(call *exprpb.Expr_Call, receiverIsValue bool) (fieldExpr, valueExpr *exprpb.Expr, err error) {
	if call.Target != nil {
		if len(call.Args) != 1 {
			return nil, nil, fmt.Errorf("%s with receiver must have exactly one argument", call.Function)
		}
		if receiverIsValue {
			return call.Args[0], call.Target, nil
		}
		return call.Target, call.Args[0], nil
	}
	if len(call.Args) != 2 {
		return nil, nil, fmt.Errorf("%s expects two operands", call.Function)
	}
	return call.Args[0], call.Args[1], nil
}

func parseFieldIdent(expr *exprpb.Expr) (string, error) {
	ident := expr.GetIdentExpr()
	if ident == nil {
		return "", errors.New("left-hand side must be an identifier")
	}
	return ident.GetName(), nil
}

func parseLiteral(expr *exprpb.Expr) (any, error) {
	if constant := expr.GetConstExpr(); constant != nil {
		switch constant.ConstantKind.(type) {
		case *exprpb.Constant_StringValue:
			return constant.GetStringValue(), nil
		case *exprpb.Constant_Int64Value:
			return float64(constant.GetInt64Value()), nil
		case *exprpb.Constant_Uint64Value:
			return float64(constant.GetUint64Value()), nil
		case *exprpb.Constant_DoubleValue:
			return constant.GetDoubleValue(), nil
		default:
			return nil, fmt.Errorf("literal type %T is not supported", constant.ConstantKind)
		}
	}

	if list := expr.GetListExpr(); list != nil {
		elements := list.GetElements()
		values := make([]string, len(elements))
		for i, elem := range elements {
			val, err := parseLiteral(elem)
			if err != nil {
				return nil, fmt.Errorf("list literal element %d: %w", i, err)
			}
			str, ok := val.(string)
			if !ok {
				return nil, errors.New("list literal elements must be strings")
			}
			values[i] = str
		}
		return values, nil
	}

	if call := expr.GetCallExpr(); call != nil && call.Function == "timestamp" {
		if call.Target != nil || len(call.Args) != 1 {
			return nil, errors.New("timestamp() expects a single string argument")
		}
		arg := call.Args[0].GetConstExpr()
		if arg == nil {
			return nil, errors.New("timestamp() argument must be a string literal")
		}
		str := arg.GetStringValue()
		if str == "" {
			return nil, errors.New("timestamp() argument must not be empty")
		}
		if t, err := time.Parse(time.RFC3339Nano, str); err == nil {
			return t, nil
		}
		if t, err := time.Parse(time.RFC3339, str); err == nil {
			return t, nil
		}
		return nil, fmt.Errorf("timestamp literal %q is not RFC3339", str)
	}

	return nil, errors.New("right-hand side must be a literal, list literal, or timestamp() call")
}

func checkLiteral(kind ValueKind, op Op, value any) error {
	if op == OpIN {
		if kind != KindString {
			return fmt.Errorf("in operator is only defined for string fields, not %s", kind)
		}
		list, ok := value.([]string)
		if !ok {
			return errors.New("expected list of string literals")
		}
		if len(list) == 0 {
			return errors.New("list literal must not be empty")
		}
		for _, item := range list {
			if item == "" {
				return errors.New("list literal must not contain empty strings")
			}
		}
		return nil
	}

	switch kind {
	case KindString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected %s literal", kind)
		}
	case KindNumber:
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("expected %s literal", kind)
		}
	case KindTimestamp:
		if _, ok := value.(time.Time); !ok {
			return fmt.Errorf("expected %s literal", kind)
		}
	default:
		return fmt.Errorf("unsupported field kind %s", kind)
	}
	return nil
}

func assignValue(field reflect.Value, value any) error {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return assignValue(field.Elem(), value)
	}
	if field.Kind() == reflect.Interface {
		field.Set(reflect.ValueOf(value))
		return nil
	}

	switch v := value.(type) {
	case string:
		if field.Kind() != reflect.String {
			return fmt.Errorf("expected string-compatible destination, got %s", field.Kind())
		}
		field.SetString(v)
	case []string:
		if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("expected slice-of-strings destination, got %s", field.Type())
		}
		clone := make([]string, len(v))
		copy(clone, v)
		field.Set(reflect.ValueOf(clone))
	case float64:
		return assignNumeric(field, v)
	case time.Time:
		if field.Type() != timeType {
			return fmt.Errorf("expected time.Time destination, got %s", field.Type())
		}
		field.Set(reflect.ValueOf(v))
	default:
		return fmt.Errorf("unsupported literal type %T", value)
	}
	return nil
}

func assignNumeric(field reflect.Value, value float64) error {
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		field.SetFloat(value)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if math.Trunc(value) != value {
			return fmt.Errorf("cannot assign non-integer value %v to integer field", value)
		}
		bits := field.Type().Bits()
		lo := -1 << (bits - 1)
		hi := (1 << (bits - 1)) - 1
		if value < float64(lo) || value > float64(hi) {
			return fmt.Errorf("value %v overflows integer field", value)
		}
		field.SetInt(int64(value))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if math.Trunc(value) != value || value < 0 {
			return fmt.Errorf("cannot assign value %v to unsigned integer field", value)
		}
		bits := field.Type().Bits()
		hi := (uint64(1) << bits) - 1
		if value > float64(hi) {
			return fmt.Errorf("value %v overflows unsigned integer field", value)
		}
		field.SetUint(uint64(value))
		return nil
	default:
		return fmt.Errorf("numeric assignment requires integer or float field, got %s", field.Kind())
	}
}
