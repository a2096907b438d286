package filterexpr

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type listRequest struct {
	Filter  string
	OrderBy string
}

func (r listRequest) GetFilter() string  { return r.Filter }
func (r listRequest) GetOrderBy() string { return r.OrderBy }

type listCardsParams struct {
	Language      *string
	WordPrefix    *string
	EaseMin       *float64
	EaseMax       *float64
	DueBefore     *time.Time
	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

var cardsSchema = ResourceSchema{
	Filter: map[string]FilterField{
		"language": {
			Kind: KindString,
			Ops:  map[Op]string{OpEQ: "Language"},
		},
		"word": {
			Kind: KindString,
			Ops:  map[Op]string{OpSW: "WordPrefix"},
		},
		"ease_factor": {
			Kind: KindNumber,
			Ops: map[Op]string{
				OpGTE: "EaseMin",
				OpLTE: "EaseMax",
			},
		},
		"next_review_at": {
			Kind: KindTimestamp,
			Ops:  map[Op]string{OpLTE: "DueBefore"},
		},
	},
	Order: OrderSchema{
		DefaultPrimary:     "next_review_at",
		DefaultPrimaryDesc: false,
		FallbackKey:        "id",
		FallbackDesc:       false,
		Fields: map[string]OrderField{
			"next_review_at": {Expr: "next_review_at"},
			"word":           {Expr: "word"},
			"id":             {Expr: "id"},
		},
	},
}

func TestBindFilterAndOrder(t *testing.T) {
	deadline := "2025-06-01T00:00:00Z"
	req := listRequest{
		Filter:  fmt.Sprintf("language == 'es' && ease_factor >= 1.3 && word.startsWith('ho') && next_review_at <= timestamp('%s')", deadline),
		OrderBy: "word desc",
	}

	var params listCardsParams
	if err := Bind(req, &params, cardsSchema); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	if params.Language == nil || *params.Language != "es" {
		t.Fatalf("Language = %v, want es", params.Language)
	}
	if params.EaseMin == nil || *params.EaseMin != 1.3 {
		t.Fatalf("EaseMin = %v, want 1.3", params.EaseMin)
	}
	if params.EaseMax != nil {
		t.Fatalf("EaseMax = %v, want nil", params.EaseMax)
	}
	if params.WordPrefix == nil || *params.WordPrefix != "ho" {
		t.Fatalf("WordPrefix = %v, want ho", params.WordPrefix)
	}
	want, _ := time.Parse(time.RFC3339, deadline)
	if params.DueBefore == nil || !params.DueBefore.Equal(want) {
		t.Fatalf("DueBefore = %v, want %v", params.DueBefore, want)
	}
	if params.PrimaryKey != "word" || !params.PrimaryDesc {
		t.Fatalf("primary order = %s desc=%v", params.PrimaryKey, params.PrimaryDesc)
	}
	if params.SecondaryKey != "id" || params.SecondaryDesc {
		t.Fatalf("secondary order = %s desc=%v", params.SecondaryKey, params.SecondaryDesc)
	}
}

func TestBindEmptyInputsUseDefaults(t *testing.T) {
	var params listCardsParams
	if err := Bind(listRequest{}, &params, cardsSchema); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	if params.Language != nil || params.WordPrefix != nil || params.DueBefore != nil {
		t.Fatalf("filter fields set without a filter: %+v", params)
	}
	if params.PrimaryKey != "next_review_at" || params.PrimaryDesc {
		t.Fatalf("primary order = %s desc=%v", params.PrimaryKey, params.PrimaryDesc)
	}
	if params.SecondaryKey != "id" {
		t.Fatalf("secondary order = %s", params.SecondaryKey)
	}
}

func TestBindNumberBounds(t *testing.T) {
	var params listCardsParams
	req := listRequest{Filter: "ease_factor >= 1.3 && ease_factor <= 2.5"}
	if err := Bind(req, &params, cardsSchema); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if params.EaseMin == nil || *params.EaseMin != 1.3 {
		t.Fatalf("EaseMin = %v", params.EaseMin)
	}
	if params.EaseMax == nil || *params.EaseMax != 2.5 {
		t.Fatalf("EaseMax = %v", params.EaseMax)
	}
}

func TestBindInOperator(t *testing.T) {
	type params struct {
		Languages     []string
		PrimaryKey    string
		PrimaryDesc   bool
		SecondaryKey  string
		SecondaryDesc bool
	}

	schema := ResourceSchema{
		Filter: map[string]FilterField{
			"language": {
				Kind: KindString,
				Ops:  map[Op]string{OpIN: "Languages"},
			},
		},
		Order: cardsSchema.Order,
	}

	var p params
	if err := Bind(listRequest{Filter: "language in ['es', 'fr']"}, &p, schema); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if !reflect.DeepEqual(p.Languages, []string{"es", "fr"}) {
		t.Fatalf("Languages = %v", p.Languages)
	}
}

func TestBindCustomSetter(t *testing.T) {
	type params struct {
		Language      pgtype.Text
		PrimaryKey    string
		PrimaryDesc   bool
		SecondaryKey  string
		SecondaryDesc bool
	}

	schema := ResourceSchema{
		Filter: map[string]FilterField{
			"language": {
				Kind: KindString,
				Ops:  map[Op]string{OpEQ: "Language"},
				Setter: func(field reflect.Value, v any) error {
					text, ok := v.(string)
					if !ok {
						return fmt.Errorf("expected string, got %T", v)
					}
					field.Set(reflect.ValueOf(pgtype.Text{String: text, Valid: true}))
					return nil
				},
			},
		},
		Order: cardsSchema.Order,
	}

	var p params
	if err := Bind(listRequest{Filter: "language == 'ja'"}, &p, schema); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if !p.Language.Valid || p.Language.String != "ja" {
		t.Fatalf("Language = %+v", p.Language)
	}
}

func TestBindFilterErrors(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   string
	}{
		{"unknown field", "unknown == 'x'", "not allowed"},
		{"disallowed operator", "language <= 'a'", "operator"},
		{"wrong literal type", "language == 1", "expected string"},
		{"logical or", "language == 'es' || ease_factor <= 2", "only AND"},
		{"non-literal rhs", "ease_factor <= foo", "right-hand side"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var params listCardsParams
			err := Bind(listRequest{Filter: tc.filter}, &params, cardsSchema)
			if err == nil {
				t.Fatalf("expected error for %q", tc.filter)
			}
			if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tc.want)) {
				t.Fatalf("error %v does not contain %q", err, tc.want)
			}
		})
	}
}

func TestBindOrderErrors(t *testing.T) {
	tests := []struct {
		name    string
		orderBy string
		want    string
	}{
		{"unknown key", "ease_factor desc", "cannot be used"},
		{"bad direction", "word sideways", "invalid direction"},
		{"duplicate key", "word, word desc", "duplicate"},
		{"too many keys", "word, id, next_review_at", "at most two"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var params listCardsParams
			err := Bind(listRequest{OrderBy: tc.orderBy}, &params, cardsSchema)
			if err == nil {
				t.Fatalf("expected error for %q", tc.orderBy)
			}
			if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tc.want)) {
				t.Fatalf("error %v does not contain %q", err, tc.want)
			}
		})
	}
}
