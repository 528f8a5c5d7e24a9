// Package document_repo provides PostgreSQL implementations of the document
// repositories: journal entries, reconciliation sessions, cash counts and
// stock takings.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"ledger/internal/infrastructure/storage/postgres"
)

// baseRepo provides the table metadata and query plumbing shared by document
// repositories. Child rows go through the COPY-based batch inserter.
type baseRepo struct {
	txm        *postgres.TxManager
	batch      *postgres.BatchInserter
	tableName  string
	selectCols []string
}

func newBaseRepo(txm *postgres.TxManager, tableName string, selectCols []string) baseRepo {
	return baseRepo{
		txm:        txm,
		batch:      postgres.NewBatchInserter(txm),
		tableName:  tableName,
		selectCols: selectCols,
	}
}

// querier returns the transaction in ctx or the pool.
func (r baseRepo) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// baseSelect creates a SELECT builder over every mapped column.
func (r baseRepo) baseSelect() squirrel.SelectBuilder {
	return postgres.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// insertRow inserts row using its "db" tags, restricted to mapped columns.
func (r baseRepo) insertRow(ctx context.Context, row any, entity string) error {
	data := postgres.StructToMap(row)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in %s row", entity)
	}

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	_, err := postgres.Exec(ctx, r.querier(ctx), postgres.Builder().Insert(r.tableName).SetMap(filtered), entity)
	return err
}

// listPage counts the rows of q, then selects one ordered page into dst.
func (r baseRepo) listPage(ctx context.Context, dst any, q squirrel.SelectBuilder, entity string, limit, offset int, orderBy ...string) (int64, error) {
	querier := r.querier(ctx)
	total, err := postgres.Count(ctx, querier, q, entity)
	if err != nil {
		return 0, err
	}
	q = postgres.Page(q.OrderBy(orderBy...), limit, offset)
	if err := postgres.Select(ctx, querier, dst, q, entity); err != nil {
		return 0, err
	}
	return total, nil
}
