package dto

import (
	"time"

	"ledger/internal/domain/catalogs/fiscal_year"
)

// CreateFiscalYearRequest adds the half-open period [beginTime, endTime).
type CreateFiscalYearRequest struct {
	BeginTime time.Time `json:"beginTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
	Name      *string   `json:"name" binding:"omitempty,max=128"`
}

func (r *CreateFiscalYearRequest) ToDomain() *fiscal_year.FiscalYear {
	return &fiscal_year.FiscalYear{BeginTime: r.BeginTime, EndTime: r.EndTime, Name: r.Name}
}
