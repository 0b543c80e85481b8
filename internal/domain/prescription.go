package domain

import "time"

// PrescriptionStatus é o estado da receita.
type PrescriptionStatus string

const (
	PrescriptionPending  PrescriptionStatus = "PENDING"
	PrescriptionApproved PrescriptionStatus = "APPROVED"
	PrescriptionRejected PrescriptionStatus = "REJECTED"
)

// Prescription é uma receita enviada por um cliente para revisão.
type Prescription struct {
	ID           string             `json:"id"`
	UserID       string             `json:"userId"`
	CustomerName string             `json:"customerName"`
	Email        string             `json:"email"`
	Phone        string             `json:"phone"`
	ImageURL     string             `json:"imageUrl"`
	Notes        string             `json:"notes"`
	Status       PrescriptionStatus `json:"status"`
	ReviewNote   string             `json:"reviewNote,omitempty"`
	ReviewedBy   string             `json:"reviewedBy,omitempty"`
	ReviewedAt   *time.Time         `json:"reviewedAt,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// PrescriptionInput é o payload de envio.
type PrescriptionInput struct {
	CustomerName string `json:"customerName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	ImageURL     string `json:"imageUrl"`
	Notes        string `json:"notes"`
}

// PrescriptionReview é o payload de aprovação/rejeição.
type PrescriptionReview struct {
	Note string `json:"note"`
}

// PrescriptionFilter filtra a listagem administrativa.
type PrescriptionFilter struct {
	Status PrescriptionStatus
	Page
}
