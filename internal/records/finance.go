package records

import "github.com/shopspring/decimal"

type Account struct {
	Base
	Name     string          `json:"name" validate:"required"`
	Type     string          `json:"type" validate:"omitempty,oneof=checking savings cash investment"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
}

type Card struct {
	Base
	Name       string          `json:"name" validate:"required"`
	Brand      string          `json:"brand"`
	Limit      decimal.Decimal `json:"limit"`
	ClosingDay int             `json:"closingDay" validate:"omitempty,min=1,max=31"`
	DueDay     int             `json:"dueDay" validate:"omitempty,min=1,max=31"`
}

type Transaction struct {
	Base
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type" validate:"omitempty,oneof=income expense transfer"`
	AccountID   string          `json:"accountId"`
	CardID      string          `json:"cardId"`
	CategoryID  string          `json:"categoryId"`
	Date        string          `json:"date"`
	Paid        bool            `json:"paid"`
}

type Category struct {
	Base
	Name  string `json:"name" validate:"required"`
	Kind  string `json:"kind" validate:"omitempty,oneof=income expense"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type Goal struct {
	Base
	Name     string          `json:"name" validate:"required"`
	Target   decimal.Decimal `json:"target"`
	Current  decimal.Decimal `json:"current"`
	Deadline string          `json:"deadline"`
}

// Progress returns Current/Target as a percentage, 0 when Target is zero.
func (g *Goal) Progress() decimal.Decimal {
	if g.Target.IsZero() {
		return decimal.Zero
	}
	return g.Current.Div(g.Target).Mul(decimal.NewFromInt(100)).Round(2)
}

// Challenge is a savings challenge split into numbered cells.
type Challenge struct {
	Base
	Name   string          `json:"name" validate:"required"`
	Target decimal.Decimal `json:"target"`
	Cells  int             `json:"cells" validate:"gte=0"`
}

type ChallengeCell struct {
	Base
	ChallengeID string          `json:"challengeId" validate:"required"`
	Number      int             `json:"number"`
	Amount      decimal.Decimal `json:"amount"`
	Checked     bool            `json:"checked"`
}

type Receivable struct {
	Base
	ClientID    string          `json:"clientId"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     string          `json:"dueDate"`
	Status      string          `json:"status" validate:"omitempty,oneof=open paid overdue"`
}

var (
	Accounts       = define(Schema{Name: "accounts"}, func() *Account { return &Account{} })
	Cards          = define(Schema{Name: "cards"}, func() *Card { return &Card{} })
	Transactions   = define(Schema{Name: "transactions"}, func() *Transaction { return &Transaction{} })
	Categories     = define(Schema{Name: "categories"}, func() *Category { return &Category{} })
	Goals          = define(Schema{Name: "goals"}, func() *Goal { return &Goal{} })
	Challenges     = define(Schema{Name: "challenges"}, func() *Challenge { return &Challenge{} })
	ChallengeCells = define(Schema{Name: "challenge_cells"}, func() *ChallengeCell { return &ChallengeCell{} })
	Receivables    = define(Schema{Name: "receivables"}, func() *Receivable { return &Receivable{} })
)
