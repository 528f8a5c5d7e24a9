package memory

import (
	"context"
	"sort"
	"time"

	"ledger/internal/core/apperror"
	"ledger/internal/core/id"
	"ledger/internal/core/types"
	"ledger/internal/domain"
	"ledger/internal/domain/catalogs/fiscal_year"
	"ledger/internal/domain/catalogs/inventory_item"
	"ledger/internal/domain/documents/cash_count"
	"ledger/internal/domain/documents/stock_taking"
)

// --- Cash counts ---

// CashCountRepo implements cash_count.Repository.
type CashCountRepo struct {
	s *Store
}

// CashCounts returns the cash count repository.
func (s *Store) CashCounts() *CashCountRepo {
	return &CashCountRepo{s: s}
}

func (r *CashCountRepo) Create(ctx context.Context, c *cash_count.CashCount) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.st.sessions[c.ReconciliationSessionID]; !ok {
		return apperror.NewNotFound("reconciliation session", c.ReconciliationSessionID.String())
	}
	r.s.st.cashCounts[c.ID] = *c
	return nil
}

func (r *CashCountRepo) Get(ctx context.Context, countID id.ID) (*cash_count.CashCount, error) {
	defer r.s.read(ctx)()
	c, ok := r.s.st.cashCounts[countID]
	if !ok {
		return nil, apperror.NewNotFound("cash count", countID.String())
	}
	return &c, nil
}

func (r *CashCountRepo) GetBySession(ctx context.Context, sessionID id.ID) (*cash_count.CashCount, error) {
	defer r.s.read(ctx)()
	for _, c := range r.s.st.cashCounts {
		if c.ReconciliationSessionID == sessionID {
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("cash count", sessionID.String())
}

func (r *CashCountRepo) List(ctx context.Context, filter cash_count.Filter) ([]cash_count.CashCount, int64, error) {
	entries, total := r.history(ctx, filter)
	out := make([]cash_count.CashCount, len(entries))
	for i, e := range entries {
		out[i] = e.CashCount
	}
	return out, total, nil
}

func (r *CashCountRepo) History(ctx context.Context, filter cash_count.Filter) ([]cash_count.HistoryEntry, int64, error) {
	entries, total := r.history(ctx, filter)
	return entries, total, nil
}

// history joins counts with their sessions the way cash_count_history does.
func (r *CashCountRepo) history(ctx context.Context, filter cash_count.Filter) ([]cash_count.HistoryEntry, int64) {
	defer r.s.read(ctx)()
	out := make([]cash_count.HistoryEntry, 0)
	for _, c := range r.s.st.cashCounts {
		if filter.AccountCode != "" && c.AccountCode != filter.AccountCode {
			continue
		}
		if filter.From != nil && c.CountTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !c.CountTime.Before(*filter.To) {
			continue
		}
		sess := r.s.st.sessions[c.ReconciliationSessionID]
		d := sess.Discrepancy()
		h := cash_count.HistoryEntry{
			CashCount:                 c,
			InternalBalance:           sess.InternalClosingBalance,
			Discrepancy:               d,
			DiscrepancyType:           cash_count.Classify(d),
			AdjustmentJournalEntryRef: sess.AdjustmentJournalEntryRef,
		}
		if filter.DiscrepancyType != "" && h.DiscrepancyType != filter.DiscrepancyType {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CountTime.Equal(out[j].CountTime) {
			return out[i].CountTime.After(out[j].CountTime)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return page(out, filter.Limit, filter.Offset), int64(len(out))
}

var _ cash_count.Repository = (*CashCountRepo)(nil)

// --- Stock takings ---

// StockTakingRepo implements stock_taking.Repository.
type StockTakingRepo struct {
	s *Store
}

// StockTakings returns the stock taking repository.
func (s *Store) StockTakings() *StockTakingRepo {
	return &StockTakingRepo{s: s}
}

func (r *StockTakingRepo) Create(ctx context.Context, st *stock_taking.StockTaking) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.st.items[st.InventoryID]; !ok {
		return apperror.NewNotFound("inventory item", st.InventoryID.String())
	}
	r.s.st.stockTakings[st.ID] = *st
	return nil
}

func (r *StockTakingRepo) Get(ctx context.Context, stID id.ID) (*stock_taking.StockTaking, error) {
	defer r.s.read(ctx)()
	st, ok := r.s.st.stockTakings[stID]
	if !ok {
		return nil, apperror.NewNotFound("stock taking", stID.String())
	}
	return &st, nil
}

func (r *StockTakingRepo) List(ctx context.Context, filter stock_taking.Filter) ([]stock_taking.StockTaking, int64, error) {
	defer r.s.read(ctx)()
	out := make([]stock_taking.StockTaking, 0)
	for _, st := range r.s.st.stockTakings {
		if filter.InventoryID != nil && st.InventoryID != *filter.InventoryID {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AuditTime.Equal(out[j].AuditTime) {
			return out[i].AuditTime.After(out[j].AuditTime)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return page(out, filter.Limit, filter.Offset), int64(len(out)), nil
}

var _ stock_taking.Repository = (*StockTakingRepo)(nil)

// --- Inventory items ---

// InventoryRepo implements inventory_item.Repository.
type InventoryRepo struct {
	s *Store
}

// Inventory returns the inventory item repository.
func (s *Store) Inventory() *InventoryRepo {
	return &InventoryRepo{s: s}
}

func (r *InventoryRepo) Create(ctx context.Context, it *inventory_item.Item) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.st.items[it.ID]; ok {
		return apperror.NewDuplicate("inventory item", "id", it.ID.String())
	}
	r.s.st.items[it.ID] = *it
	return nil
}

func (r *InventoryRepo) Get(ctx context.Context, itemID id.ID) (*inventory_item.Item, error) {
	defer r.s.read(ctx)()
	it, ok := r.s.st.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("inventory item", itemID.String())
	}
	return &it, nil
}

func (r *InventoryRepo) GetForUpdate(ctx context.Context, itemID id.ID) (*inventory_item.Item, error) {
	return r.Get(ctx, itemID)
}

func (r *InventoryRepo) List(ctx context.Context, filter domain.ListFilter) ([]inventory_item.Item, int64, error) {
	defer r.s.read(ctx)()
	out := make([]inventory_item.Item, 0, len(r.s.st.items))
	for _, it := range r.s.st.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return page(out, filter.Limit, filter.Offset), int64(len(out)), nil
}

func (r *InventoryRepo) UpdateStock(ctx context.Context, itemID id.ID, stock types.Quantity, averageCost types.MinorUnits, at time.Time) error {
	defer r.s.write(ctx)()
	it, ok := r.s.st.items[itemID]
	if !ok {
		return apperror.NewNotFound("inventory item", itemID.String())
	}
	it.Stock = stock
	it.AverageCost = averageCost
	it.UpdateTime = at
	r.s.st.items[itemID] = it
	return nil
}

var _ inventory_item.Repository = (*InventoryRepo)(nil)

// --- Fiscal years ---

// FiscalYearRepo implements fiscal_year.Repository.
type FiscalYearRepo struct {
	s *Store
}

// FiscalYears returns the fiscal year repository.
func (s *Store) FiscalYears() *FiscalYearRepo {
	return &FiscalYearRepo{s: s}
}

// LockTable is a no-op; transactions already serialize on the store.
func (r *FiscalYearRepo) LockTable(ctx context.Context) error {
	return nil
}

func (r *FiscalYearRepo) FindOverlapping(ctx context.Context, begin, end time.Time) ([]fiscal_year.FiscalYear, error) {
	defer r.s.read(ctx)()
	probe := fiscal_year.FiscalYear{BeginTime: begin, EndTime: end}
	out := make([]fiscal_year.FiscalYear, 0)
	for _, fy := range r.s.st.fiscalYears {
		if fy.Overlaps(&probe) {
			out = append(out, fy)
		}
	}
	sortFiscalYears(out)
	return out, nil
}

func (r *FiscalYearRepo) Create(ctx context.Context, fy *fiscal_year.FiscalYear) error {
	defer r.s.write(ctx)()
	for _, other := range r.s.st.fiscalYears {
		if other.Overlaps(fy) {
			return apperror.NewConstraintViolation("fiscal_year_overlap", "fiscal year overlaps an existing fiscal year").
				WithDetail("fiscal_year_id", other.ID.String())
		}
	}
	r.s.st.fiscalYears[fy.ID] = *fy
	return nil
}

func (r *FiscalYearRepo) Get(ctx context.Context, fyID id.ID) (*fiscal_year.FiscalYear, error) {
	defer r.s.read(ctx)()
	fy, ok := r.s.st.fiscalYears[fyID]
	if !ok {
		return nil, apperror.NewNotFound("fiscal year", fyID.String())
	}
	return &fy, nil
}

func (r *FiscalYearRepo) Containing(ctx context.Context, t time.Time) (*fiscal_year.FiscalYear, error) {
	defer r.s.read(ctx)()
	for _, fy := range r.s.st.fiscalYears {
		if fy.Contains(t) {
			return &fy, nil
		}
	}
	return nil, apperror.NewNotFound("fiscal year", t.UTC().Format(time.RFC3339))
}

func (r *FiscalYearRepo) List(ctx context.Context) ([]fiscal_year.FiscalYear, error) {
	defer r.s.read(ctx)()
	out := make([]fiscal_year.FiscalYear, 0, len(r.s.st.fiscalYears))
	for _, fy := range r.s.st.fiscalYears {
		out = append(out, fy)
	}
	sortFiscalYears(out)
	return out, nil
}

func (r *FiscalYearRepo) Delete(ctx context.Context, fyID id.ID) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.st.fiscalYears[fyID]; !ok {
		return apperror.NewNotFound("fiscal year", fyID.String())
	}
	delete(r.s.st.fiscalYears, fyID)
	return nil
}

func sortFiscalYears(fys []fiscal_year.FiscalYear) {
	sort.Slice(fys, func(i, j int) bool { return fys[i].BeginTime.Before(fys[j].BeginTime) })
}

var _ fiscal_year.Repository = (*FiscalYearRepo)(nil)
