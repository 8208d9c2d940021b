package records

import "github.com/shopspring/decimal"

// UserProfile is the dashboard-side profile of a seller.
type UserProfile struct {
	Base
	Name           string          `json:"name"`
	Email          string          `json:"email" validate:"omitempty,email"`
	Phone          string          `json:"phone"`
	Role           string          `json:"role"`
	CommissionRate decimal.Decimal `json:"commissionRate"`
	Active         bool            `json:"active"`
}

type Sale struct {
	Base
	ClientID        string          `json:"clientId"`
	ClientName      string          `json:"clientName"`
	Product         string          `json:"product"`
	Type            string          `json:"type" validate:"omitempty,oneof=basic natal custom"`
	Amount          decimal.Decimal `json:"amount"`
	CommissionRate  decimal.Decimal `json:"commissionRate"`
	CommissionValue decimal.Decimal `json:"commissionValue"`
	SaleDate        string          `json:"saleDate"`
	Status          string          `json:"status" validate:"omitempty,oneof=pending paid cancelled"`
}

type Client struct {
	Base
	Name     string   `json:"name" validate:"required"`
	Phone    string   `json:"phone"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Document string   `json:"document"`
	Birthday string   `json:"birthday"`
	Notes    string   `json:"notes"`
	Tags     []string `json:"tags"`
}

// ClientTransferRequest asks to move a client to another seller.
type ClientTransferRequest struct {
	Base
	ClientID   string `json:"clientId" validate:"required"`
	FromUserID string `json:"fromUserId"`
	ToUserID   string `json:"toUserId" validate:"required"`
	Reason     string `json:"reason"`
	Status     string `json:"status" validate:"omitempty,oneof=pending approved rejected"`
}

// CommissionRule is a rate band shared by the commission_* tables.
type CommissionRule struct {
	Base
	Name      string          `json:"name"`
	MinAmount decimal.Decimal `json:"minAmount"`
	MaxAmount decimal.Decimal `json:"maxAmount"`
	Rate      decimal.Decimal `json:"rate"`
}

// Applies reports whether amount falls in [MinAmount, MaxAmount]. A zero
// MaxAmount means no upper bound.
func (r *CommissionRule) Applies(amount decimal.Decimal) bool {
	if amount.LessThan(r.MinAmount) {
		return false
	}
	return r.MaxAmount.IsZero() || amount.LessThanOrEqual(r.MaxAmount)
}

var (
	Users                  = define(Schema{Name: "users"}, func() *UserProfile { return &UserProfile{} })
	Sales                  = define(Schema{Name: "sales"}, func() *Sale { return &Sale{} })
	Clients                = define(Schema{Name: "clients"}, func() *Client { return &Client{} })
	ClientTransferRequests = define(Schema{Name: "client_transfer_requests"}, func() *ClientTransferRequest { return &ClientTransferRequest{} })
	CommissionBasic        = define(Schema{Name: "commission_basic"}, func() *CommissionRule { return &CommissionRule{} })
	CommissionNatal        = define(Schema{Name: "commission_natal"}, func() *CommissionRule { return &CommissionRule{} })
	CommissionCustom       = define(Schema{Name: "commission_custom"}, func() *CommissionRule { return &CommissionRule{} })
)
