// Package models defines the core data structures shared by the trading
// service: users, sessions, assets, portfolios and purchase lots.
package models

import "time"

// Role is the authorization level bound to a session token at issuance.
// It never changes for the lifetime of the token; a higher role is only
// obtained by issuing a new token through the elevation check.
type Role string

const (
	// RoleStandard is the default role every authenticated user holds.
	RoleStandard Role = "standard"
	// RoleElevated is required for minting and retiring assets.
	RoleElevated Role = "elevated"
)

// Satisfies reports whether the role meets the given requirement.
func (r Role) Satisfies(required Role) bool {
	if required == RoleElevated {
		return r == RoleElevated
	}
	return r == RoleStandard || r == RoleElevated
}

// User represents a registered account. The email is the identity key.
type User struct {
	// Email is the unique login identity.
	Email string
	// Password is the stored credential, compared by exact match.
	Password string
	// CreatedAt is the registration timestamp.
	CreatedAt time.Time
}

// Session is a live authentication token row.
type Session struct {
	// Token is the opaque token value handed to the client.
	Token string
	// Owner is the email of the user the token was issued to.
	Owner string
	// Role is the authorization level fixed at issuance.
	Role Role
	// CreatedAt drives the retention sweep.
	CreatedAt time.Time
}

// Identity is the authenticated caller extracted from a session.
type Identity struct {
	Email string
	Role  Role
}

// Asset is a tradeable synthetic instrument with an integer price.
type Asset struct {
	ID int64
	// Name is unique across the registry.
	Name string
	// Creator is the email of the elevated user who minted it.
	Creator string
	// Price is the current market price. Always non-negative, never
	// fractional.
	Price     int64
	CreatedAt time.Time
}

// AssetPrice is a name/price pair as returned by price listings.
type AssetPrice struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Portfolio holds a cash balance and, through its lots, asset positions.
// The portfolio password is a separate secret from the owner's account
// password.
type Portfolio struct {
	ID    int64
	Owner string
	// Name is unique across all portfolios.
	Name     string
	Password string
	// Money is the cash balance in whole units. Never negative.
	Money     int64
	CreatedAt time.Time
}

// Lot is a single acquisition record: amount units of one asset bought
// at one price. Lots are appended on buy and consumed oldest-first on
// sell.
type Lot struct {
	ID          int64  `json:"id"`
	PortfolioID int64  `json:"-"`
	Asset       string `json:"asset"`
	Amount      int64  `json:"amount"`
	// PriceBought is the unit price at acquisition time. Proceeds on a
	// sell use the current market price, not this value.
	PriceBought int64     `json:"price_bought"`
	CreatedAt   time.Time `json:"-"`
}

// TradeSide distinguishes buy receipts from sell receipts.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// Receipt describes one settled trade.
type Receipt struct {
	// ID is a time-sortable ULID assigned when the trade settles.
	ID        string    `json:"id"`
	Side      TradeSide `json:"side"`
	Portfolio string    `json:"portfolio"`
	Asset     string    `json:"asset"`
	Amount    int64     `json:"amount"`
	// UnitPrice is the market price the trade executed at.
	UnitPrice int64 `json:"unit_price"`
	// Total is UnitPrice * Amount: the cash debited (buy) or credited
	// (sell).
	Total int64 `json:"total"`
	// Balance is the portfolio cash balance after settlement.
	Balance int64 `json:"balance"`
}

// Holdings is a portfolio snapshot: the balance plus all live lots.
type Holdings struct {
	Portfolio string `json:"portfolio"`
	Balance   int64  `json:"balance"`
	Lots      []Lot  `json:"lots"`
}
