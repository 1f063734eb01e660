package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultCurrency    = "VND"
	UncategorizedLabel = "Uncategorized"
)

// Kind selects one of the two ledgers. Categories carry the same value as their type.
type Kind string

const (
	KindExpense Kind = "EXPENSE"
	KindIncome  Kind = "INCOME"
)

func (k Kind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

// NormalizeKind upper-cases the input; the result may still be invalid.
func NormalizeKind(s string) Kind {
	return Kind(strings.ToUpper(strings.TrimSpace(s)))
}

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           int64      `json:"id"`
	GoogleID     string     `json:"-"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	FullName     string     `json:"full_name,omitempty"`
	PictureURL   string     `json:"picture_url,omitempty"`
	Locale       string     `json:"locale,omitempty"`
	Currency     string     `json:"currency"`
	Theme        string     `json:"theme,omitempty"`
	Role         Role       `json:"role"`
	Enabled      bool       `json:"enabled"`
	PasswordHash string     `json:"-"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasPassword reports whether a local credential has been set.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

type UserFilter struct {
	Search      string
	Role        Role
	Enabled     *bool
	CreatedFrom time.Time
	CreatedTo   time.Time
}

// Category with a nil UserID is global: visible and assignable to every user.
type Category struct {
	ID          int64     `json:"id"`
	UserID      *int64    `json:"user_id,omitempty"`
	Name        string    `json:"name"`
	Type        Kind      `json:"type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *Category) IsGlobal() bool {
	return c.UserID == nil
}

// OwnedBy reports whether the category belongs to userID specifically.
func (c *Category) OwnedBy(userID int64) bool {
	return c.UserID != nil && *c.UserID == userID
}

// VisibleTo reports whether userID may see and assign the category.
func (c *Category) VisibleTo(userID int64) bool {
	return c.IsGlobal() || c.OwnedBy(userID)
}

// Transaction is a row of either the expense or the income ledger.
type Transaction struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	Kind         Kind            `json:"type"`
	CategoryID   *int64          `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Note         string          `json:"note,omitempty"`
	Date         time.Time       `json:"date"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Label is the display name used for grouping.
func (t *Transaction) Label() string {
	if t.CategoryID == nil || t.CategoryName == "" {
		return UncategorizedLabel
	}
	return t.CategoryName
}

type TransactionFilter struct {
	Period     Period
	CategoryID *int64
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	Search     string
}

type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Count  int64           `json:"count"`
}

// Bucket is the granularity of time-bucketed sums.
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketMonth Bucket = "month"
	BucketYear  Bucket = "year"
)

func (b Bucket) Valid() bool {
	return b == BucketDay || b == BucketMonth || b == BucketYear
}

// Truncate returns the first day of the bucket containing t.
func (b Bucket) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch b {
	case BucketYear:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case BucketMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return DateOf(t)
	}
}

type BucketAmount struct {
	Start  time.Time
	Amount decimal.Decimal
	Count  int64
}

type Suggestion struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"suggestion"`
	CreatedAt time.Time `json:"created_at"`
}

type SuggestionFilter struct {
	UserID      *int64
	CreatedFrom time.Time
	CreatedTo   time.Time
	Limit       int
}

type EmailStatus string

const (
	EmailSent   EmailStatus = "SENT"
	EmailFailed EmailStatus = "FAILED"
)

type Email struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	Subject   string      `json:"subject"`
	Body      string      `json:"-"`
	Status    EmailStatus `json:"status"`
	SentAt    *time.Time  `json:"sent_at,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// SystemCounts are the cross-user totals shown to administrators.
type SystemCounts struct {
	TotalUsers       int64 `json:"total_users"`
	ActiveUsers      int64 `json:"active_users"`
	NewUsers         int64 `json:"new_users"`
	TotalExpenses    int64 `json:"total_expenses"`
	TotalIncomes     int64 `json:"total_incomes"`
	TotalCategories  int64 `json:"total_categories"`
	GlobalCategories int64 `json:"global_categories"`
	TotalSuggestions int64 `json:"total_suggestions"`
}

type MonthCount struct {
	Year  int
	Month time.Month
	Count int64
}
