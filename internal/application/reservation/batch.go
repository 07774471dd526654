package reservation

import (
	"context"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

// BatchCloseResult resultado de cerrar un préstamo dentro de un lote.
type BatchCloseResult struct {
	LoanID string
	Loan   *entity.Loan
	Err    error
}

// BatchClose aplica CloseLoan a cada id de forma independiente: el fallo de uno
// no bloquea a los demás. Los ids repetidos se procesan una sola vez y el
// resultado conserva el orden de la primera aparición.
func (e *Engine) BatchClose(ctx context.Context, actorID string, loanIDs []string) []BatchCloseResult {
	ids := lo.Uniq(lo.Compact(loanIDs))
	results := make([]BatchCloseResult, len(ids))

	var g errgroup.Group
	g.SetLimit(e.cfg.BatchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			loan, err := e.CloseLoan(ctx, actorID, id)
			results[i] = BatchCloseResult{LoanID: id, Loan: loan, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := lo.CountBy(results, func(r BatchCloseResult) bool { return r.Err != nil })
	e.log.Info().Str("op", "loan.batch_close").Int("total", len(ids)).Int("failed", failed).Msg("cierre por lote")
	return results
}
