package billing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// GuestMealPurpose marks a payment made for a visitor's meal.
const GuestMealPurpose = "Guest Meal"

type Payment struct {
	ID      string          `json:"id"`
	UserID  string          `json:"uid"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Amount  decimal.Decimal `json:"amount"`
	Status  string          `json:"status"`
	Purpose string          `json:"purpose"`
	PaidAt  time.Time       `json:"timeStamp"`
}

type Filter struct {
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

type ListResult struct {
	Payments []Payment
	Total    int
}

type Summary struct {
	TotalCollection decimal.Decimal `json:"totalCollection"`
	Transactions    int             `json:"transactions"`
	Refunds         decimal.Decimal `json:"refunds"`
	ByStatus        map[string]int  `json:"byStatus"`
}

// NormalizeStatus folds payment statuses to lower case; blank becomes "unknown".
func NormalizeStatus(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "unknown"
	}
	return s
}

// Summarize totals positive amounts as collection and negative amounts as refunds.
func Summarize(payments []Payment) Summary {
	sum := Summary{
		TotalCollection: decimal.Zero,
		Refunds:         decimal.Zero,
		ByStatus:        make(map[string]int),
	}
	for _, p := range payments {
		sum.Transactions++
		sum.ByStatus[NormalizeStatus(p.Status)]++
		switch {
		case p.Amount.IsPositive():
			sum.TotalCollection = sum.TotalCollection.Add(p.Amount)
		case p.Amount.IsNegative():
			sum.Refunds = sum.Refunds.Add(p.Amount.Abs())
		}
	}
	return sum
}
