// Package period implements the Postgres repository for AccountingPeriod
// lookups, backing §4.2 precondition 5.
package period

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/dbtx"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// Repository is the Postgres-backed PeriodRepository.
type Repository struct {
	DB dbtx.DB
}

func (r *Repository) exec(ctx context.Context) dbtx.Executor {
	return dbtx.GetExecutor(ctx, r.DB)
}

// FindCovering returns the accounting period whose [start_date, end_date]
// contains effectiveDate.
func (r *Repository) FindCovering(ctx context.Context, effectiveDate time.Time) (*mmodel.AccountingPeriod, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("id", "start_date", "end_date", "status").
		From("accounting_period").
		Where(sqrl.LtOrEq{"start_date": effectiveDate}).
		Where(sqrl.GtOrEq{"end_date": effectiveDate}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("period: build query: %w", err)
	}

	row := r.exec(ctx).QueryRowContext(ctx, query, args...)

	var p mmodel.AccountingPeriod

	if err := row.Scan(&p.ID, &p.StartDate, &p.EndDate, &p.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("period: find covering: %w", err)
	}

	return &p, nil
}
