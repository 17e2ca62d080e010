package domain

import "time"

const (
	PaymentCash = "cash"
	PaymentQRIS = "qris"

	StatusCompleted = "completed"

	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

type Product struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ProductInput struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	Description string `json:"description,omitempty"`
}

// ProductUpdate carries the fields to merge into an existing product. Nil
// fields are left untouched.
type ProductUpdate struct {
	Code        *string `json:"code,omitempty"`
	Name        *string `json:"name,omitempty"`
	Category    *string `json:"category,omitempty"`
	Price       *int64  `json:"price,omitempty"`
	Stock       *int    `json:"stock,omitempty"`
	Description *string `json:"description,omitempty"`
}

// CartLine is a product snapshot taken when it was first added to the cart.
// The embedded product fields are flattened in JSON.
type CartLine struct {
	Product
	Quantity int       `json:"quantity"`
	Subtotal int64     `json:"subtotal"`
	AddedAt  time.Time `json:"addedAt"`
}

type Transaction struct {
	ID            string     `json:"id"`
	Items         []CartLine `json:"items"`
	Subtotal      int64      `json:"subtotal"`
	Tax           int64      `json:"tax"`
	Total         int64      `json:"total"`
	PaymentMethod string     `json:"paymentMethod"`
	AmountPaid    int64      `json:"amountPaid"`
	Change        int64      `json:"change"`
	Date          time.Time  `json:"date"`
	CreatedAt     time.Time  `json:"createdAt"`
	Status        string     `json:"status"`
}

type CommitRequest struct {
	PaymentMethod string `json:"paymentMethod"`
	AmountPaid    int64  `json:"amountPaid"`
	TaxOverride   *int64 `json:"taxOverride,omitempty"`
}

type Settings struct {
	BusinessName  string  `json:"businessName" yaml:"businessName"`
	Currency      string  `json:"currency" yaml:"currency"`
	TaxRate       float64 `json:"taxRate" yaml:"taxRate"`
	ReceiptFooter string  `json:"receiptFooter" yaml:"receiptFooter"`
}

type SettingsUpdate struct {
	BusinessName  *string  `json:"businessName,omitempty"`
	Currency      *string  `json:"currency,omitempty"`
	TaxRate       *float64 `json:"taxRate,omitempty"`
	ReceiptFooter *string  `json:"receiptFooter,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		BusinessName:  "My Store",
		Currency:      "IDR",
		TaxRate:       10,
		ReceiptFooter: "Thank you for your purchase!",
	}
}

// Apply shallow-merges the non-nil fields of u into s.
func (s Settings) Apply(u SettingsUpdate) Settings {
	if u.BusinessName != nil {
		s.BusinessName = *u.BusinessName
	}
	if u.Currency != nil {
		s.Currency = *u.Currency
	}
	if u.TaxRate != nil {
		s.TaxRate = *u.TaxRate
	}
	if u.ReceiptFooter != nil {
		s.ReceiptFooter = *u.ReceiptFooter
	}
	return s
}

type CartSummary struct {
	Lines     []CartLine `json:"lines"`
	Total     int64      `json:"total"`
	ItemCount int        `json:"itemCount"`
}

type Stats struct {
	TodayRevenue      int64 `json:"todayRevenue"`
	TodayTransactions int   `json:"todayTransactions"`
	MonthRevenue      int64 `json:"monthRevenue"`
	MonthTransactions int   `json:"monthTransactions"`
	TotalRevenue      int64 `json:"totalRevenue"`
	TotalTransactions int   `json:"totalTransactions"`
}

type ProductSales struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Revenue  int64  `json:"revenue"`
}

type Report struct {
	GeneratedAt       time.Time      `json:"generatedAt"`
	Stats             Stats          `json:"stats"`
	TopSelling        []ProductSales `json:"topSelling"`
	LowStock          []Product      `json:"lowStock"`
	LowStockThreshold int            `json:"lowStockThreshold"`
}

type Receipt struct {
	Transaction Transaction `json:"transaction"`
	Settings    Settings    `json:"settings"`
}

// Snapshot is the full-state export document.
type Snapshot struct {
	Products     []Product     `json:"products"`
	Transactions []Transaction `json:"transactions"`
	Settings     Settings      `json:"settings"`
	ExportedAt   time.Time     `json:"exportedAt"`
}

type Actor struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}
