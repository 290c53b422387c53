// Package budget produces allocation suggestions and over/under-budget
// diagnostics from historical category spend.
package budget

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/lifetrack/lifetrack/internal/core"
)

// allocationHistoryDays is how far back spend history informs allocations.
const allocationHistoryDays = 90

// defaultAllocations is the fixed percentage table used when a user has no
// transaction history at all.
var defaultAllocations = []struct {
	Category   string
	Percentage float64
}{
	{"Food", 30},
	{"Transport", 15},
	{"Housing", 20},
	{"Phone", 5},
	{"Health", 10},
	{"Education", 10},
	{"Other", 10},
}

// Allocation is one category's suggested share of a budget
type Allocation struct {
	Category          string  `json:"category"`
	SuggestedAmount   float64 `json:"suggested_amount"`
	Percentage        float64 `json:"percentage"`
	HistoricalAverage float64 `json:"historical_average"` // 3-month monthly mean
	FromHistory       bool    `json:"from_history"`
}

// SuggestAllocations splits totalBudget across categories in proportion to
// the trailing 90 days of expense history. With no history the fixed
// default table applies. Results are sorted by suggested amount descending.
func SuggestAllocations(transactions []core.Transaction, totalBudget float64, today time.Time) ([]Allocation, error) {
	if totalBudget < 0 {
		return nil, fmt.Errorf("%w: negative budget", core.ErrInvalidInput)
	}

	start := core.Day(today).AddDate(0, 0, -allocationHistoryDays)
	spend := make(map[string]float64)
	var total float64
	for _, tx := range transactions {
		if tx.Type != core.TransactionExpense || core.Day(tx.Date).Before(start) {
			continue
		}
		amount := math.Abs(tx.Amount)
		spend[tx.Category] += amount
		total += amount
	}

	if len(spend) == 0 {
		out := make([]Allocation, 0, len(defaultAllocations))
		for _, d := range defaultAllocations {
			out = append(out, Allocation{
				Category:        d.Category,
				SuggestedAmount: totalBudget * d.Percentage / 100,
				Percentage:      d.Percentage,
			})
		}
		return out, nil
	}

	out := make([]Allocation, 0, len(spend))
	for cat, amount := range spend {
		share := 0.0
		if total > 0 {
			share = amount / total * 100
		}
		out = append(out, Allocation{
			Category:          cat,
			SuggestedAmount:   totalBudget * share / 100,
			Percentage:        share,
			HistoricalAverage: amount / 3,
			FromHistory:       true,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SuggestedAmount > out[j].SuggestedAmount })
	return out, nil
}

// Status reports spending against one budget
type Status struct {
	BudgetID        core.BudgetID `json:"budget_id"`
	Category        string        `json:"category"`
	BudgetAmount    float64       `json:"budget_amount"`
	SpentAmount     float64       `json:"spent_amount"`
	RemainingAmount float64       `json:"remaining_amount"`
	PercentageUsed  float64       `json:"percentage_used"`
	IsOverBudget    bool          `json:"is_over_budget"`
}

// GetStatus computes spend within the budget's window for its category.
// An open-ended budget is measured through today.
func GetStatus(b core.Budget, transactions []core.Transaction, today time.Time) Status {
	spent := spentInWindow(b, transactions, today)

	pct := 0.0
	if b.Amount > 0 {
		pct = spent / b.Amount * 100
	}

	return Status{
		BudgetID:        b.ID,
		Category:        b.Category,
		BudgetAmount:    b.Amount,
		SpentAmount:     spent,
		RemainingAmount: b.Amount - spent,
		PercentageUsed:  pct,
		IsOverBudget:    spent > b.Amount,
	}
}

// Diagnostic kinds emitted by Optimize
const (
	DiagnosticWarning = "warning"
	DiagnosticAlert   = "alert"
	DiagnosticInfo    = "info"
)

// Diagnostic is one structured optimization note for a budget
type Diagnostic struct {
	Kind      string  `json:"kind"`
	Overspend float64 `json:"overspend,omitempty"`
	UsedPct   float64 `json:"used_pct,omitempty"`
	AvgPerTxn float64 `json:"avg_per_txn,omitempty"`
}

// Optimization is the result of analyzing one budget
type Optimization struct {
	Status      Status       `json:"status"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Optimize analyzes one budget's window: a warning once spend exceeds the
// budget, an alert past 80% used, and an info note when the average
// transaction is more than 10% of the budget amount.
func Optimize(b core.Budget, transactions []core.Transaction, today time.Time) Optimization {
	status := GetStatus(b, transactions, today)
	count := countInWindow(b, transactions, today)

	diags := []Diagnostic{}
	switch {
	case status.PercentageUsed > 100:
		diags = append(diags, Diagnostic{
			Kind:      DiagnosticWarning,
			Overspend: -status.RemainingAmount,
			UsedPct:   status.PercentageUsed,
		})
	case status.PercentageUsed > 80:
		diags = append(diags, Diagnostic{
			Kind:    DiagnosticAlert,
			UsedPct: status.PercentageUsed,
		})
	}

	if count > 0 {
		avg := status.SpentAmount / float64(count)
		if avg > b.Amount*0.1 {
			diags = append(diags, Diagnostic{Kind: DiagnosticInfo, AvgPerTxn: avg})
		}
	}

	return Optimization{Status: status, Diagnostics: diags}
}

func spentInWindow(b core.Budget, transactions []core.Transaction, today time.Time) float64 {
	var spent float64
	for _, tx := range windowTransactions(b, transactions, today) {
		spent += math.Abs(tx.Amount)
	}
	return spent
}

func countInWindow(b core.Budget, transactions []core.Transaction, today time.Time) int {
	return len(windowTransactions(b, transactions, today))
}

func windowTransactions(b core.Budget, transactions []core.Transaction, today time.Time) []core.Transaction {
	end := core.Day(today)
	if b.EndDate != nil {
		end = core.Day(*b.EndDate)
	}
	start := core.Day(b.StartDate)

	var out []core.Transaction
	for _, tx := range transactions {
		if tx.Type != core.TransactionExpense || tx.Category != b.Category {
			continue
		}
		day := core.Day(tx.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		out = append(out, tx)
	}
	return out
}
