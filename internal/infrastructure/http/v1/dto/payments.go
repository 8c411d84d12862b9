package dto

import (
	"time"

	"gstbooks/internal/domain/payments"
)

// RecordPaymentRequest records money against an invoice or purchase.
type RecordPaymentRequest struct {
	DocumentID string    `json:"documentId" binding:"required,uuid"`
	Amount     string    `json:"amount" binding:"required,money"`
	Method     string    `json:"method" binding:"required,oneof=cash bank upi card cheque"`
	Date       time.Time `json:"date" binding:"required"`
	Note       string    `json:"note,omitempty"`
}

// ToInput converts the request into the payment service input.
func (r RecordPaymentRequest) ToInput() (payments.RecordInput, error) {
	documentID, err := ParseID("documentId", r.DocumentID)
	if err != nil {
		return payments.RecordInput{}, err
	}

	amount, err := ParseMoney("amount", r.Amount)
	if err != nil {
		return payments.RecordInput{}, err
	}

	return payments.RecordInput{
		DocumentID: documentID,
		Amount:     amount,
		Method:     payments.Method(r.Method),
		Date:       r.Date,
		Note:       r.Note,
	}, nil
}

// RecordExpenseRequest records a business expense.
type RecordExpenseRequest struct {
	DocumentID string    `json:"documentId,omitempty" binding:"omitempty,uuid"`
	Amount     string    `json:"amount" binding:"required,money"`
	Method     string    `json:"method" binding:"required,oneof=cash bank upi card cheque"`
	Date       time.Time `json:"date" binding:"required"`
	Category   string    `json:"category" binding:"required"`
	Note       string    `json:"note,omitempty"`
}

// ToEntity converts the request into an expense.
func (r RecordExpenseRequest) ToEntity() (*payments.Expense, error) {
	amount, err := ParseMoney("amount", r.Amount)
	if err != nil {
		return nil, err
	}

	e := &payments.Expense{
		Amount:   amount,
		Method:   payments.Method(r.Method),
		Date:     r.Date,
		Category: payments.ExpenseCategory(r.Category),
		Note:     r.Note,
	}

	if r.DocumentID != "" {
		documentID, err := ParseID("documentId", r.DocumentID)
		if err != nil {
			return nil, err
		}
		e.DocumentID = &documentID
	}

	return e, nil
}

// PaymentListQuery filters the payment and cashflow listings.
type PaymentListQuery struct {
	FromDate string `form:"fromDate"`
	ToDate   string `form:"toDate"`
	Method   string `form:"method" binding:"omitempty,oneof=cash bank upi card cheque"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset   int    `form:"offset" binding:"omitempty,min=0"`
}
