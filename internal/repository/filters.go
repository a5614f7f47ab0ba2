package repository

import (
	"strings"
	"time"
)

// Condition is one SQL predicate with its bind arguments.
type Condition struct {
	Query string
	Args  []interface{}
}

// Page is an offset/limit window.
type Page struct {
	Offset int
	Limit  int
}

// PageFor converts a 1-indexed page number and size into a window.
func PageFor(page, pageSize int) Page {
	if page < 1 {
		page = 1
	}
	return Page{Offset: (page - 1) * pageSize, Limit: pageSize}
}

// LeadFilter holds the optional lead search predicates. Nil or empty
// fields are not applied; present fields are ANDed.
type LeadFilter struct {
	Stage      string
	ScoreMin   *int
	ScoreMax   *int
	CapitalMin *int64
	CapitalMax *int64
	DateFrom   *time.Time
	DateTo     *time.Time
	Search     string // substring of phone
}

func (f LeadFilter) Conditions() []Condition {
	var conds []Condition
	if f.Stage != "" {
		conds = append(conds, Condition{"stage = ?", []interface{}{f.Stage}})
	}
	if f.ScoreMin != nil {
		conds = append(conds, Condition{"lead_score >= ?", []interface{}{*f.ScoreMin}})
	}
	if f.ScoreMax != nil {
		conds = append(conds, Condition{"lead_score <= ?", []interface{}{*f.ScoreMax}})
	}
	if f.CapitalMin != nil {
		conds = append(conds, Condition{"capital_available >= ?", []interface{}{*f.CapitalMin}})
	}
	if f.CapitalMax != nil {
		conds = append(conds, Condition{"capital_available <= ?", []interface{}{*f.CapitalMax}})
	}
	if f.DateFrom != nil {
		conds = append(conds, Condition{"created_at >= ?", []interface{}{f.DateFrom.UTC()}})
	}
	if f.DateTo != nil {
		conds = append(conds, Condition{"created_at <= ?", []interface{}{f.DateTo.UTC()}})
	}
	if f.Search != "" {
		conds = append(conds, Condition{"phone LIKE ?", []interface{}{"%" + f.Search + "%"}})
	}
	return conds
}

// LeadSort orders lead search results.
type LeadSort struct {
	By    string // created_at, lead_score, capital_available
	Order string // asc, desc
}

var leadSortColumns = map[string]string{
	"created_at":        "created_at",
	"lead_score":        "lead_score",
	"capital_available": "capital_available",
}

// OrderClause returns the ORDER BY expression. Unknown keys fall back to
// created_at and anything other than "asc" sorts descending.
func (s LeadSort) OrderClause() string {
	column, ok := leadSortColumns[s.By]
	if !ok {
		column = "created_at"
	}
	if strings.ToLower(s.Order) == "asc" {
		return column + " ASC"
	}
	return column + " DESC"
}

// DealFilter holds the optional deal search predicates.
type DealFilter struct {
	Status           string
	DealType         string
	MinInvestmentMax *int64
	Search           string // name or summary, case-insensitive
}

func (f DealFilter) Conditions() []Condition {
	var conds []Condition
	if f.Status != "" {
		conds = append(conds, Condition{"status = ?", []interface{}{f.Status}})
	}
	if f.DealType != "" {
		conds = append(conds, Condition{"deal_type = ?", []interface{}{f.DealType}})
	}
	if f.MinInvestmentMax != nil {
		conds = append(conds, Condition{"minimum_investment <= ?", []interface{}{*f.MinInvestmentMax}})
	}
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		conds = append(conds, Condition{"(LOWER(name) LIKE ? OR LOWER(summary) LIKE ?)", []interface{}{pattern, pattern}})
	}
	return conds
}

// IsEmpty reports whether no predicate is set.
func (f DealFilter) IsEmpty() bool {
	return len(f.Conditions()) == 0
}
