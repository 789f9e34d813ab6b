package models

import "time"

// FeePaymentStatus enumerates fee settlement states.
const (
	FeeStatusUnpaid  = "unpaid"
	FeeStatusPartial = "partial"
	FeeStatusPaid    = "paid"
)

// StudentFee is a billable item raised against a student, optionally scoped
// to a class.
type StudentFee struct {
	ID            string     `db:"id" json:"id"`
	StudentID     string     `db:"student_id" json:"student_id"`
	ClassID       *string    `db:"class_id" json:"class_id,omitempty"`
	FeeType       string     `db:"fee_type" json:"fee_type"`
	AmountDue     float64    `db:"amount_due" json:"amount_due"`
	AmountPaid    float64    `db:"amount_paid" json:"amount_paid"`
	Discount      float64    `db:"discount" json:"discount"`
	DueDate       *time.Time `db:"due_date" json:"due_date,omitempty"`
	PaymentStatus string     `db:"payment_status" json:"payment_status"`
	Notes         string     `db:"notes" json:"notes"`
	UpdatedBy     *string    `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// FeeFilter captures filter criteria for listing fees.
type FeeFilter struct {
	StudentID     string
	ClassID       string
	PaymentStatus string
	Page          int
	PageSize      int
}

// Payment records money received against a fee.
type Payment struct {
	ID        string     `db:"id" json:"id"`
	StudentID string     `db:"student_id" json:"student_id"`
	FeeID     *string    `db:"fee_id" json:"fee_id,omitempty"`
	Amount    float64    `db:"amount" json:"amount"`
	PaidAt    *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	Method    string     `db:"method" json:"method"`
	Reference string     `db:"reference" json:"reference"`
	Notes     string     `db:"notes" json:"notes"`
	UpdatedBy *string    `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// PaymentFilter captures filter criteria for listing payments.
type PaymentFilter struct {
	StudentID string
	FeeID     string
	Page      int
	PageSize  int
}
