package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Method string

const (
	MethodCard Method = "CARD"
	MethodQR   Method = "QR_CODE"
)

// Payment is the ledger record written alongside the invoice flip to PAID.
// Detail only ever holds masked instrument data.
type Payment struct {
	ID            snowflake.ID   `json:"id" gorm:"primaryKey"`
	InvoiceID     snowflake.ID   `json:"invoiceId" gorm:"not null;index"`
	CompanyID     snowflake.ID   `json:"companyId" gorm:"not null;index"`
	PaidBy        snowflake.ID   `json:"paidBy" gorm:"not null;index"`
	Method        Method         `json:"method" gorm:"type:text;not null"`
	TransactionID string         `json:"transactionId" gorm:"type:text;uniqueIndex;not null"`
	Amount        float64        `json:"amount" gorm:"not null"`
	Status        string         `json:"status" gorm:"type:text;not null"`
	Detail        datatypes.JSON `json:"detail" gorm:"type:jsonb"`
	CreatedAt     time.Time      `json:"createdAt"`
}

func (Payment) TableName() string { return "payments" }

const StatusSucceeded = "SUCCESS"
