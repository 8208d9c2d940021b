package analytics

import (
	"sort"

	"github.com/bizdash/bizsync/internal/records"
	"github.com/shopspring/decimal"
)

type Class string

const (
	ClassA Class = "A"
	ClassB Class = "B"
	ClassC Class = "C"
)

var (
	limitA  = decimal.NewFromInt(80)
	limitB  = decimal.NewFromInt(95)
	hundred = decimal.NewFromInt(100)
)

// ABCItem is the revenue of one client and its class.
type ABCItem struct {
	ClientID   string
	ClientName string
	Sales      int
	Total      decimal.Decimal
	// Share and Cumulative are percentages of the grand total.
	Share      decimal.Decimal
	Cumulative decimal.Decimal
	Class      Class
}

// ABCReport ranks clients by revenue, highest first.
type ABCReport struct {
	Total decimal.Decimal
	Items []ABCItem
}

// Count returns how many clients fell into c.
func (r ABCReport) Count(c Class) int {
	n := 0
	for _, it := range r.Items {
		if it.Class == c {
			n++
		}
	}
	return n
}

// ABC classifies clients by their share of revenue. A client is A while
// the cumulative share before it is under 80 %, B while under 95 %, and C
// after that, so the top client is always A. Deleted and cancelled sales
// are ignored; sales are grouped by client id, or by normalised client
// name when the id is empty.
func ABC(sales []*records.Sale) ABCReport {
	byKey := make(map[string]*ABCItem)
	var order []string

	for _, s := range sales {
		if s == nil || s.Deleted || s.Status == "cancelled" || !s.Amount.IsPositive() {
			continue
		}
		key := s.ClientID
		if key == "" {
			key = "name:" + Normalize(s.ClientName)
		}
		it, ok := byKey[key]
		if !ok {
			it = &ABCItem{ClientID: s.ClientID, ClientName: s.ClientName}
			byKey[key] = it
			order = append(order, key)
		}
		it.Sales++
		it.Total = it.Total.Add(s.Amount)
	}

	rep := ABCReport{Total: decimal.Zero, Items: make([]ABCItem, 0, len(order))}
	for _, k := range order {
		rep.Total = rep.Total.Add(byKey[k].Total)
		rep.Items = append(rep.Items, *byKey[k])
	}
	if rep.Total.IsZero() {
		return rep
	}

	sort.SliceStable(rep.Items, func(i, j int) bool {
		if c := rep.Items[i].Total.Cmp(rep.Items[j].Total); c != 0 {
			return c > 0
		}
		return rep.Items[i].ClientName < rep.Items[j].ClientName
	})

	cum := decimal.Zero
	for i := range rep.Items {
		it := &rep.Items[i]
		// Classed by the share reached before this item: the client that
		// crosses a limit keeps the higher class.
		before := cum.Mul(hundred).Div(rep.Total)
		switch {
		case before.LessThan(limitA):
			it.Class = ClassA
		case before.LessThan(limitB):
			it.Class = ClassB
		default:
			it.Class = ClassC
		}
		it.Share = it.Total.Mul(hundred).Div(rep.Total).Round(2)
		cum = cum.Add(it.Total)
		it.Cumulative = cum.Mul(hundred).Div(rep.Total).Round(2)
	}
	return rep
}
