package repository

import "github.com/eslsoft/explorespeak/pkg/filterexpr"

var listCardsSchema = filterexpr.ResourceSchema{
	Filter: map[string]filterexpr.FilterField{
		"language": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "Language"},
		},
		"word": {
			Kind: filterexpr.KindString,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpSW: "WordPrefix",
				filterexpr.OpIN: "Words",
			},
		},
		"next_review_at": {
			Kind: filterexpr.KindTimestamp,
			Ops:  map[filterexpr.Op]string{filterexpr.OpLTE: "DueBefore"},
		},
	},
	Order: filterexpr.OrderSchema{
		DefaultPrimary:     "next_review_at",
		DefaultPrimaryDesc: false,
		FallbackKey:        "id",
		FallbackDesc:       false,
		Fields: map[string]filterexpr.OrderField{
			"next_review_at": {Expr: "next_review_at", Nulls: "last"},
			"created_at":     {Expr: "created_at", Nulls: "last"},
			"updated_at":     {Expr: "updated_at", Nulls: "last"},
			"word":           {Expr: "word", Nulls: "last"},
			"ease_factor":    {Expr: "ease_factor", Nulls: "last"},
			"id":             {Expr: "id"},
		},
	},
}

var listPerformanceSchema = filterexpr.ResourceSchema{
	Filter: map[string]filterexpr.FilterField{
		"quest_id": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "QuestID"},
		},
		"score": {
			Kind: filterexpr.KindNumber,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpGTE: "ScoreMin",
				filterexpr.OpLTE: "ScoreMax",
			},
		},
		"completed_at": {
			Kind: filterexpr.KindTimestamp,
			Ops:  map[filterexpr.Op]string{filterexpr.OpGTE: "CompletedAfter"},
		},
	},
	Order: filterexpr.OrderSchema{
		DefaultPrimary:     "completed_at",
		DefaultPrimaryDesc: true,
		FallbackKey:        "id",
		FallbackDesc:       true,
		Fields: map[string]filterexpr.OrderField{
			"completed_at": {Expr: "completed_at", Nulls: "last"},
			"score":        {Expr: "score", Nulls: "last"},
			"id":           {Expr: "id"},
		},
	},
}
