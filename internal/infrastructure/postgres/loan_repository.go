package postgres

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"

	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/repository"
)

var _ repository.LoanRepository = (*LoanRepo)(nil)

// LoanRepo implementación de LoanRepository sobre PostgreSQL (usable con pool o tx).
type LoanRepo struct {
	q  Querier
	sb sq.StatementBuilderType
}

// NewLoanRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLoanRepository(q Querier) *LoanRepo {
	return &LoanRepo{q: q, sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

const loanColumns = `id, employee_id, status, opened_by, COALESCE(pickup_signature, ''), COALESCE(return_signature, ''), created_at, closed_at`

const lineColumns = `id, loan_id, position, kind, target_id, quantity, created_at, returned_at`

// Create persiste la cabecera del préstamo.
func (r *LoanRepo) Create(ctx context.Context, l *entity.Loan) error {
	query := `
		INSERT INTO loans (id, employee_id, status, opened_by, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, l.ID, l.EmployeeID, l.Status, l.OpenedBy, l.CreatedAt)
	if isForeignKeyViolation(err) {
		return domain.ErrEmployeeNotFound
	}
	return wrap("insert loan", err)
}

// GetByID obtiene el préstamo con sus líneas.
func (r *LoanRepo) GetByID(ctx context.Context, id string) (*entity.Loan, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate obtiene el préstamo bloqueando su fila hasta el fin de la transacción.
func (r *LoanRepo) GetForUpdate(ctx context.Context, id string) (*entity.Loan, error) {
	return r.get(ctx, id, true)
}

func (r *LoanRepo) get(ctx context.Context, id string, lock bool) (*entity.Loan, error) {
	if !validID(id) {
		return nil, nil
	}
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	l, err := scanLoan(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get loan", err)
	}
	lines, err := r.linesOf(ctx, []string{l.ID})
	if err != nil {
		return nil, err
	}
	l.Lines = lines[l.ID]
	return l, nil
}

// List lista préstamos (más recientes primero) con sus líneas.
func (r *LoanRepo) List(ctx context.Context, f repository.LoanFilter) ([]*entity.Loan, error) {
	q := r.sb.Select(loanColumns).From("loans").OrderBy("created_at DESC", "id")
	if f.EmployeeID != "" {
		if !validID(f.EmployeeID) {
			return nil, nil
		}
		q = q.Where(sq.Eq{"employee_id": f.EmployeeID})
	}
	if f.Status != "" {
		q = q.Where(sq.Eq{"status": string(f.Status)})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, wrap("list loans", err)
	}
	defer rows.Close()
	var loans []*entity.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, wrap("scan loan", err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list loans", err)
	}
	if len(loans) == 0 {
		return loans, nil
	}

	lines, err := r.linesOf(ctx, lo.Map(loans, func(l *entity.Loan, _ int) string { return l.ID }))
	if err != nil {
		return nil, err
	}
	for _, l := range loans {
		l.Lines = lines[l.ID]
	}
	return loans, nil
}

func (r *LoanRepo) linesOf(ctx context.Context, loanIDs []string) (map[string][]entity.LoanLine, error) {
	query := `SELECT ` + lineColumns + ` FROM loan_lines WHERE loan_id = ANY($1) ORDER BY loan_id, position`
	rows, err := r.q.Query(ctx, query, loanIDs)
	if err != nil {
		return nil, wrap("list loan lines", err)
	}
	defer rows.Close()
	out := make(map[string][]entity.LoanLine, len(loanIDs))
	for rows.Next() {
		ln, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out[ln.LoanID] = append(out[ln.LoanID], *ln)
	}
	return out, wrap("list loan lines", rows.Err())
}

// AddLine inserta la línea con la siguiente posición del préstamo. La fila del
// préstamo ya está bloqueada por el llamador, así que MAX(position) es estable.
func (r *LoanRepo) AddLine(ctx context.Context, ln *entity.LoanLine) error {
	query := `
		INSERT INTO loan_lines (id, loan_id, position, kind, target_id, quantity, created_at)
		VALUES ($1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM loan_lines WHERE loan_id = $2), $3, $4, $5, $6)
		RETURNING position`
	err := r.q.QueryRow(ctx, query,
		ln.ID, ln.LoanID, string(ln.Target.Kind()), ln.Target.TargetID(), ln.Target.Quantity(), ln.CreatedAt,
	).Scan(&ln.Position)
	if isUniqueViolation(err) {
		// índice parcial: un equipo solo puede estar en una línea abierta
		return domain.ErrAssetAlreadyLoaned
	}
	return wrap("insert loan line", err)
}

// GetLine obtiene una línea por ID.
func (r *LoanRepo) GetLine(ctx context.Context, lineID string) (*entity.LoanLine, error) {
	if !validID(lineID) {
		return nil, nil
	}
	ln, err := scanLine(r.q.QueryRow(ctx, `SELECT `+lineColumns+` FROM loan_lines WHERE id = $1`, lineID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get loan line", err)
	}
	return ln, nil
}

// MarkLineReturned marca la línea solo si no estaba devuelta.
func (r *LoanRepo) MarkLineReturned(ctx context.Context, lineID string, at time.Time) (bool, error) {
	if !validID(lineID) {
		return false, nil
	}
	cmd, err := r.q.Exec(ctx, `UPDATE loan_lines SET returned_at = $2 WHERE id = $1 AND returned_at IS NULL`, lineID, at)
	if err != nil {
		return false, wrap("mark line returned", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// Close cierra el préstamo solo si estaba abierto.
func (r *LoanRepo) Close(ctx context.Context, loanID string, at time.Time) (bool, error) {
	if !validID(loanID) {
		return false, nil
	}
	cmd, err := r.q.Exec(ctx, `UPDATE loans SET status = 'CLOSED', closed_at = $2 WHERE id = $1 AND status = 'OPEN'`, loanID, at)
	if err != nil {
		return false, wrap("close loan", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// SetSignature guarda la referencia de la firma de entrega o devolución.
func (r *LoanRepo) SetSignature(ctx context.Context, loanID string, kind entity.SignatureKind, ref string) error {
	if !validID(loanID) {
		return domain.ErrLoanNotFound
	}
	column := "pickup_signature"
	if kind == entity.SignatureReturn {
		column = "return_signature"
	}
	cmd, err := r.q.Exec(ctx, `UPDATE loans SET `+column+` = $2 WHERE id = $1`, loanID, ref)
	if err != nil {
		return wrap("set signature", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

func scanLoan(row pgx.Row) (*entity.Loan, error) {
	var l entity.Loan
	if err := row.Scan(&l.ID, &l.EmployeeID, &l.Status, &l.OpenedBy, &l.PickupSignature, &l.ReturnSignature, &l.CreatedAt, &l.ClosedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func scanLine(row pgx.Row) (*entity.LoanLine, error) {
	var (
		ln   entity.LoanLine
		kind entity.LineKind
		id   string
		qty  int
	)
	if err := row.Scan(&ln.ID, &ln.LoanID, &ln.Position, &kind, &id, &qty, &ln.CreatedAt, &ln.ReturnedAt); err != nil {
		return nil, err
	}
	target, err := entity.RestoreLineTarget(kind, id, qty)
	if err != nil {
		return nil, err
	}
	ln.Target = target
	return &ln, nil
}
