// Package categorizer assigns a spending category to a transaction.
//
// The decision is an ordered ladder of rules; the first rule whose Match
// returns true names the category, and a transaction nothing matches is "Other".
package categorizer

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/autotopup-backend/internal/models"
)

// Input is what a classifier sees of a transaction.
type Input struct {
	Merchant    string
	Description string
	Amount      decimal.Decimal
	Type        models.TransactionType
}

// Categorizer is implemented by the in-process Engine and the HTTP Client.
type Categorizer interface {
	Categorize(ctx context.Context, in Input) (string, error)
}

type Rule struct {
	Name     string
	Category string
	Match    func(in Normalized) bool
}

// Normalized is an Input with lowercased text, as rules see it.
type Normalized struct {
	Merchant    string
	Description string
	Amount      decimal.Decimal
	Credit      bool
}

func normalize(in Input) Normalized {
	return Normalized{
		Merchant:    strings.ToLower(in.Merchant),
		Description: strings.ToLower(in.Description),
		Amount:      in.Amount,
		Credit:      strings.EqualFold(string(in.Type), string(models.TxnCredit)),
	}
}

// Mentions reports whether any keyword appears in the merchant or description.
func (n Normalized) Mentions(keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(n.Merchant, k) || strings.Contains(n.Description, k) {
			return true
		}
	}
	return false
}

func keywords(name, category string, words ...string) Rule {
	return Rule{Name: name, Category: category, Match: func(n Normalized) bool { return n.Mentions(words...) }}
}

// DefaultLargeAmount is the amount above which rent and salary descriptions are trusted.
var DefaultLargeAmount = decimal.NewFromInt(700)

// DefaultRules returns the ladder in evaluation order.
func DefaultRules(largeAmount decimal.Decimal) []Rule {
	return []Rule{
		{Name: "credit", Category: "Income", Match: func(n Normalized) bool { return n.Credit }},
		keywords("income-keywords", "Income", "salary", "deposit", "income", "gift"),
		keywords("transport", "Transport", "uber", "lyft", "taxi", "transport", "tfl", "bus", "train", "metro", "subway"),
		keywords("food", "Food & Drink", "starbucks", "costa", "cafe", "restaurant", "mcdonalds", "kfc", "pizza", "food", "coffee", "tea"),
		keywords("shopping", "Shopping", "amazon", "ebay", "shop", "store", "retail", "market", "mall", "clothing", "fashion"),
		keywords("groceries", "Groceries", "tesco", "sainsbury", "asda", "morrisons", "waitrose", "aldi", "lidl", "grocery", "supermarket"),
		keywords("entertainment", "Entertainment", "cinema", "movie", "netflix", "spotify", "apple music", "game", "entertainment", "theatre"),
		keywords("bills", "Bills & Utilities", "electric", "gas", "water", "internet", "phone", "insurance", "council tax", "utility", "energy"),
		{Name: "atm", Category: "ATM", Match: func(n Normalized) bool {
			return strings.Contains(n.Merchant, "atm") || strings.Contains(n.Merchant, "cash")
		}},
		{Name: "large-income", Category: "Income", Match: func(n Normalized) bool {
			return n.Amount.GreaterThan(largeAmount) &&
				(strings.Contains(n.Description, "salary") || strings.Contains(n.Description, "wages"))
		}},
		{Name: "large-housing", Category: "Housing", Match: func(n Normalized) bool {
			return n.Amount.GreaterThan(largeAmount) &&
				(strings.Contains(n.Description, "rent") || strings.Contains(n.Description, "mortgage"))
		}},
	}
}

// Engine evaluates a rule ladder in process.
type Engine struct {
	rules []Rule
}

func NewEngine(rules []Rule) *Engine { return &Engine{rules: rules} }

// Classify returns the category and the name of the rule that produced it ("" for the default).
func (e *Engine) Classify(in Input) (category, rule string) {
	n := normalize(in)
	for _, r := range e.rules {
		if r.Match(n) {
			return r.Category, r.Name
		}
	}
	return models.CategoryOther, ""
}

func (e *Engine) Categorize(_ context.Context, in Input) (string, error) {
	c, _ := e.Classify(in)
	return c, nil
}
