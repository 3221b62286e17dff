package repository

import (
	"strings"

	"silverland-assistant/internal/model"
)

// maxShortlist caps the number of projects returned by a search.
const maxShortlist = 10

// FilterByPreferences applies the soft filter tiers to rows that already
// passed the hard filters (city, property type, bedrooms). Rows must arrive
// ordered by price ascending with unknown prices last; ordering is
// preserved.
//
// Tiers, each relaxed independently if it would empty the set:
//  1. unit-size substring match
//  2. budget lower bound (unknown prices do not satisfy a minimum)
//  3. budget upper bound (unknown prices always pass: price-on-request
//     rows are never excluded by budget)
//
// If the combined budget step empties the set, both budget bounds are
// dropped together, reverting to the hard-filter-only rows.
func FilterByPreferences(rows []model.ProjectSummary, profile model.BuyerProfile) []model.ProjectSummary {
	result := rows

	if profile.UnitSize != nil {
		sized := filterRows(result, func(p model.ProjectSummary) bool {
			return p.UnitType != nil && strings.Contains(
				strings.ToLower(*p.UnitType),
				strings.ToLower(*profile.UnitSize),
			)
		})
		if len(sized) > 0 {
			result = sized
		}
	}

	budgeted := result

	if profile.BudgetMin != nil {
		min := float64(*profile.BudgetMin)
		tmp := filterRows(budgeted, func(p model.ProjectSummary) bool {
			return p.PriceUSD != nil && *p.PriceUSD >= min
		})
		if len(tmp) > 0 {
			budgeted = tmp
		}
	}

	if profile.BudgetMax != nil {
		max := float64(*profile.BudgetMax)
		tmp := filterRows(budgeted, func(p model.ProjectSummary) bool {
			return p.PriceUSD == nil || *p.PriceUSD <= max
		})
		if len(tmp) > 0 {
			budgeted = tmp
		}
	}

	if len(budgeted) > 0 {
		result = budgeted
	} else {
		// Combined budget step emptied the set: revert to the
		// hard-filter-only rows.
		result = rows
	}

	if len(result) > maxShortlist {
		result = result[:maxShortlist]
	}
	return result
}

func filterRows(rows []model.ProjectSummary, keep func(model.ProjectSummary) bool) []model.ProjectSummary {
	out := make([]model.ProjectSummary, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
