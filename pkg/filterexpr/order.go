package filterexpr

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

type orderParams struct {
	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

// parseOrderBy turns "key [asc|desc], key2 [asc|desc]" into a validated
// two-key ordering. At most two keys are accepted; a missing secondary key
// falls back to the schema's tie-breaker so pagination stays stable.
func parseOrderBy(raw string, schema OrderSchema) (orderParams, error) {
	if schema.Fields == nil {
		schema.Fields = map[string]OrderField{}
	}
	if schema.DefaultPrimary == "" {
		return orderParams{}, errors.New("order schema default primary key required")
	}
	if schema.FallbackKey == "" {
		return orderParams{}, errors.New("order schema fallback key required")
	}
	if _, ok := schema.Fields[schema.DefaultPrimary]; !ok {
		return orderParams{}, fmt.Errorf("order key %q missing from schema fields", schema.DefaultPrimary)
	}
	if _, ok := schema.Fields[schema.FallbackKey]; !ok {
		return orderParams{}, fmt.Errorf("fallback order key %q missing from schema fields", schema.FallbackKey)
	}

	ord := orderParams{
		PrimaryKey:    schema.DefaultPrimary,
		PrimaryDesc:   schema.DefaultPrimaryDesc,
		SecondaryKey:  schema.FallbackKey,
		SecondaryDesc: schema.FallbackDesc,
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ord, nil
	}

	seen := make(map[string]struct{}, 2)
	idx := 0
	for _, seg := range strings.Split(raw, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}

		parts := strings.Fields(seg)
		key := parts[0]
		if _, ok := schema.Fields[key]; !ok {
			return orderParams{}, fmt.Errorf("field %q cannot be used for ordering", key)
		}

		var desc bool
		switch len(parts) {
		case 1:
		case 2:
			switch strings.ToLower(parts[1]) {
			case "asc":
			case "desc":
				desc = true
			default:
				return orderParams{}, fmt.Errorf("invalid direction %q for field %q", parts[1], key)
			}
		default:
			return orderParams{}, fmt.Errorf("invalid order segment %q", seg)
		}

		if _, dup := seen[key]; dup {
			return orderParams{}, fmt.Errorf("duplicate order key %q", key)
		}
		seen[key] = struct{}{}

		switch idx {
		case 0:
			ord.PrimaryKey = key
			ord.PrimaryDesc = desc
		case 1:
			ord.SecondaryKey = key
			ord.SecondaryDesc = desc
		default:
			return orderParams{}, errors.New("order_by supports at most two keys")
		}
		idx++
	}

	if ord.SecondaryKey == ord.PrimaryKey {
		ord.SecondaryKey = ""
		for key := range schema.Fields {
			if key != ord.PrimaryKey {
				ord.SecondaryKey = key
				ord.SecondaryDesc = false
				break
			}
		}
		if ord.SecondaryKey == "" {
			return orderParams{}, errors.New("order schema requires at least two distinct keys for stable ordering")
		}
	}

	return ord, nil
}

func applyOrder(params any, ord orderParams) error {
	target, err := structValue(params)
	if err != nil {
		return err
	}

	for name, value := range map[string]any{
		"PrimaryKey":    ord.PrimaryKey,
		"PrimaryDesc":   ord.PrimaryDesc,
		"SecondaryKey":  ord.SecondaryKey,
		"SecondaryDesc": ord.SecondaryDesc,
	} {
		if err := setOrderField(target, name, reflect.ValueOf(value)); err != nil {
			return err
		}
	}
	return nil
}

func setOrderField(target reflect.Value, name string, value reflect.Value) error {
	field := target.FieldByName(name)
	if !field.IsValid() {
		return fmt.Errorf("params struct %s has no field named %q", target.Type(), name)
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field %q on params struct", name)
	}

	switch field.Kind() {
	case reflect.Interface:
		field.Set(value)
		return nil
	case reflect.Ptr:
		elemType := field.Type().Elem()
		if !value.Type().ConvertibleTo(elemType) {
			return fmt.Errorf("field %q must be %s-compatible, got %s", name, elemType, value.Type())
		}
		if field.IsNil() {
			field.Set(reflect.New(elemType))
		}
		field.Elem().Set(value.Convert(elemType))
		return nil
	default:
		if !value.Type().ConvertibleTo(field.Type()) {
			return fmt.Errorf("field %q must be %s-compatible, got %s", name, field.Type(), value.Type())
		}
		field.Set(value.Convert(field.Type()))
		return nil
	}
}
