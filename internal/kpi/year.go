package kpi

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"persacc/internal/models"
)

// Defaults for the text analytics of the annual report.
const (
	DefaultMinWordLength = 3
	DefaultWordLimit     = 20
	DefaultTopEntries    = 10
)

// DefaultStopwords are ignored by the word frequency analysis.
var DefaultStopwords = []string{
	"de", "la", "el", "en", "y", "a", "los", "del", "las", "un", "una",
	"por", "que", "para", "con", "sin", "sobre", "tras", "entre",
	"the", "and", "for", "with", "from", "of", "to", "in", "on", "at",
}

// YearOptions tunes the annual analytics. Zero values fall back to defaults.
type YearOptions struct {
	// CategoryNames maps category ids to display names.
	CategoryNames map[string]string
	MinWordLength int
	WordLimit     int
	TopEntries    int
	Stopwords     []string
}

func (o *YearOptions) defaults() {
	if o.MinWordLength <= 0 {
		o.MinWordLength = DefaultMinWordLength
	}
	if o.WordLimit <= 0 {
		o.WordLimit = DefaultWordLimit
	}
	if o.TopEntries <= 0 {
		o.TopEntries = DefaultTopEntries
	}
	if o.Stopwords == nil {
		o.Stopwords = DefaultStopwords
	}
}

// MonthBalance is the per-month line of an annual summary.
type MonthBalance struct {
	FiscalMonth string          `json:"fiscal_month"`
	Income      decimal.Decimal `json:"income"`
	Expense     decimal.Decimal `json:"expense"`
	Investment  decimal.Decimal `json:"investment"`
	Balance     decimal.Decimal `json:"balance"`
}

// CategoryTotal is the spend booked against one category.
type CategoryTotal struct {
	CategoryID string          `json:"category_id"`
	Name       string          `json:"name"`
	Total      decimal.Decimal `json:"total"`
}

// WordCount is one entry of the concept word frequency table.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// DailyActivity describes how expenses spread across calendar days.
type DailyActivity struct {
	TopDay              string          `json:"top_day"`
	TopDayAmount        decimal.Decimal `json:"top_day_amount"`
	AveragePerActiveDay decimal.Decimal `json:"average_per_active_day"`
	ActiveDays          int             `json:"active_days"`
	Records             int             `json:"records"`
}

// YearSummary is the KPI set of one calendar year of fiscal months.
type YearSummary struct {
	Year int `json:"year"`
	Totals
	Balance    decimal.Decimal    `json:"balance"`
	Relevance  RelevanceBreakdown `json:"relevance"`
	SavingsPct decimal.Decimal    `json:"savings_pct"`
	Months     []MonthBalance     `json:"months"`
	// Best and worst months by balance; ties go to the earliest month.
	BestMonth          *MonthBalance     `json:"best_month,omitempty"`
	WorstMonth         *MonthBalance     `json:"worst_month,omitempty"`
	TopExpenseCategory *CategoryTotal    `json:"top_expense_category,omitempty"`
	WordCounts         []WordCount       `json:"word_counts"`
	TopEntries         []models.Movement `json:"top_entries"`
	Activity           *DailyActivity    `json:"activity,omitempty"`
	MovementCount      int               `json:"movement_count"`
}

// SummarizeYear computes the annual KPIs over the movements whose fiscal
// month falls in year.
func SummarizeYear(year int, movements []models.Movement, opts YearOptions) YearSummary {
	opts.defaults()
	prefix := strconv.Itoa(year) + "-"

	stop := make(map[string]struct{}, len(opts.Stopwords))
	for _, w := range opts.Stopwords {
		stop[w] = struct{}{}
	}

	var totals Totals
	relevance := newRelevanceBreakdown()
	perMonth := make(map[string]*Totals)
	perCategory := make(map[string]decimal.Decimal)
	perDay := make(map[string]decimal.Decimal)
	words := make(map[string]int)
	var expenses []models.Movement
	count := 0

	for i := range movements {
		m := &movements[i]
		if !strings.HasPrefix(m.FiscalMonth, prefix) {
			continue
		}
		count++
		totals.add(m)
		relevance.add(m)

		mt, ok := perMonth[m.FiscalMonth]
		if !ok {
			mt = &Totals{}
			perMonth[m.FiscalMonth] = mt
		}
		mt.add(m)

		if m.MovementType != models.MovementTypeExpense {
			continue
		}
		expenses = append(expenses, *m)
		perCategory[m.CategoryID] = perCategory[m.CategoryID].Add(m.Amount)
		day := m.RealDate.Format("2006-01-02")
		perDay[day] = perDay[day].Add(m.Amount)
		countWords(words, m.Concept, opts.MinWordLength, stop)
	}

	summary := YearSummary{
		Year:          year,
		Totals:        totals,
		Balance:       totals.balance(),
		Relevance:     relevance,
		SavingsPct:    SavingsPct(totals.Investment, totals.Income),
		Months:        monthBalances(perMonth),
		WordCounts:    topWords(words, opts.WordLimit),
		TopEntries:    TopEntries(expenses, opts.TopEntries),
		Activity:      dailyActivity(perDay, len(expenses)),
		MovementCount: count,
	}
	summary.BestMonth, summary.WorstMonth = bestAndWorst(summary.Months)
	summary.TopExpenseCategory = topCategory(perCategory, opts.CategoryNames)
	return summary
}

// SavingsPct returns investment / income, or zero when there is no income.
func SavingsPct(investment, income decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.Zero
	}
	return investment.DivRound(income, 4)
}

func monthBalances(perMonth map[string]*Totals) []MonthBalance {
	keys := make([]string, 0, len(perMonth))
	for k := range perMonth {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]MonthBalance, 0, len(keys))
	for _, k := range keys {
		t := perMonth[k]
		out = append(out, MonthBalance{
			FiscalMonth: k,
			Income:      t.Income,
			Expense:     t.Expense,
			Investment:  t.Investment,
			Balance:     t.balance(),
		})
	}
	return out
}

// bestAndWorst expects months in chronological order.
func bestAndWorst(months []MonthBalance) (best, worst *MonthBalance) {
	for i := range months {
		m := &months[i]
		if best == nil || m.Balance.GreaterThan(best.Balance) {
			best = m
		}
		if worst == nil || m.Balance.LessThan(worst.Balance) {
			worst = m
		}
	}
	if best == nil {
		return nil, nil
	}
	b, w := *best, *worst
	return &b, &w
}

func topCategory(perCategory map[string]decimal.Decimal, names map[string]string) *CategoryTotal {
	var top *CategoryTotal
	for id, total := range perCategory {
		if top == nil || total.GreaterThan(top.Total) || (total.Equal(top.Total) && id < top.CategoryID) {
			top = &CategoryTotal{CategoryID: id, Total: total}
		}
	}
	if top != nil {
		top.Name = names[top.CategoryID]
	}
	return top
}

var wordReplacer = strings.NewReplacer(".", " ", ",", " ", ";", " ", ":", " ", "(", " ", ")", " ")

func countWords(counts map[string]int, concept string, minLength int, stop map[string]struct{}) {
	for _, w := range strings.Fields(wordReplacer.Replace(strings.ToLower(concept))) {
		if len([]rune(w)) < minLength {
			continue
		}
		if _, skip := stop[w]; skip {
			continue
		}
		counts[w]++
	}
}

func topWords(counts map[string]int, limit int) []WordCount {
	out := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		out = append(out, WordCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TopEntries returns up to limit movements by descending amount, earliest
// first among equal amounts. The input slice is not reordered.
func TopEntries(movements []models.Movement, limit int) []models.Movement {
	out := make([]models.Movement, len(movements))
	copy(out, movements)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].RealDate.Before(out[j].RealDate)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func dailyActivity(perDay map[string]decimal.Decimal, records int) *DailyActivity {
	if len(perDay) == 0 {
		return nil
	}
	days := make([]string, 0, len(perDay))
	total := decimal.Zero
	for d, amount := range perDay {
		days = append(days, d)
		total = total.Add(amount)
	}
	sort.Strings(days)

	top := days[0]
	for _, d := range days[1:] {
		if perDay[d].GreaterThan(perDay[top]) {
			top = d
		}
	}
	return &DailyActivity{
		TopDay:              top,
		TopDayAmount:        perDay[top],
		AveragePerActiveDay: total.DivRound(decimal.NewFromInt(int64(len(days))), 2),
		ActiveDays:          len(days),
		Records:             records,
	}
}
