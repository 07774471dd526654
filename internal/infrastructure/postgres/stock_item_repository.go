package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/repository"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

// StockItemRepo implementación de StockItemRepository sobre PostgreSQL (usable con pool o tx).
// El CHECK (loaned >= 0 AND loaned <= quantity) de la tabla es la última barrera.
type StockItemRepo struct {
	q Querier
}

// NewStockItemRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockItemRepository(q Querier) *StockItemRepo {
	return &StockItemRepo{q: q}
}

// Create persiste un stock.
func (r *StockItemRepo) Create(ctx context.Context, s *entity.StockItem) error {
	query := `
		INSERT INTO stock_items (id, model_id, quantity, loaned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, s.ID, s.ModelID, s.Quantity, s.Loaned, s.CreatedAt, s.UpdatedAt)
	if isForeignKeyViolation(err) {
		return domain.ErrAssetModelNotFound
	}
	return wrap("insert stock item", err)
}

// GetByID obtiene un stock por ID.
func (r *StockItemRepo) GetByID(ctx context.Context, id string) (*entity.StockItem, error) {
	if !validID(id) {
		return nil, nil
	}
	query := `
		SELECT id, model_id, quantity, loaned, created_at, updated_at
		FROM stock_items WHERE id = $1`
	var s entity.StockItem
	err := r.q.QueryRow(ctx, query, id).Scan(&s.ID, &s.ModelID, &s.Quantity, &s.Loaned, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get stock item", err)
	}
	return &s, nil
}

// ListByModel lista los stocks de un modelo.
func (r *StockItemRepo) ListByModel(ctx context.Context, modelID string) ([]*entity.StockItem, error) {
	if !validID(modelID) {
		return nil, nil
	}
	query := `
		SELECT id, model_id, quantity, loaned, created_at, updated_at
		FROM stock_items WHERE model_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, modelID)
	if err != nil {
		return nil, wrap("list stock items", err)
	}
	defer rows.Close()
	var list []*entity.StockItem
	for rows.Next() {
		var s entity.StockItem
		if err := rows.Scan(&s.ID, &s.ModelID, &s.Quantity, &s.Loaned, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, wrap("scan stock item", err)
		}
		list = append(list, &s)
	}
	return list, wrap("list stock items", rows.Err())
}

// Reserve UPDATE condicional sobre la disponibilidad; sin ventana entre leer y escribir.
func (r *StockItemRepo) Reserve(ctx context.Context, id string, qty int) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	query := `
		UPDATE stock_items SET loaned = loaned + $2, updated_at = now()
		WHERE id = $1 AND quantity - loaned >= $2`
	cmd, err := r.q.Exec(ctx, query, id, qty)
	if err != nil {
		return false, wrap("reserve stock", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// Release resta qty a loaned con piso en cero.
func (r *StockItemRepo) Release(ctx context.Context, id string, qty int) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	query := `
		UPDATE stock_items SET loaned = GREATEST(loaned - $2, 0), updated_at = now()
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, id, qty)
	if err != nil {
		return false, wrap("release stock", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// SetQuantity ajusta quantity solo si no queda por debajo de loaned.
func (r *StockItemRepo) SetQuantity(ctx context.Context, id string, quantity int) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	query := `
		UPDATE stock_items SET quantity = $2, updated_at = now()
		WHERE id = $1 AND loaned <= $2`
	cmd, err := r.q.Exec(ctx, query, id, quantity)
	if err != nil {
		return false, wrap("set stock quantity", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// LockByModel bloquea los stocks del modelo (SELECT FOR UPDATE) y suma lo prestado.
func (r *StockItemRepo) LockByModel(ctx context.Context, modelID string) (int, error) {
	if !validID(modelID) {
		return 0, nil
	}
	rows, err := r.q.Query(ctx, `SELECT loaned FROM stock_items WHERE model_id = $1 FOR UPDATE`, modelID)
	if err != nil {
		return 0, wrap("lock stock items", err)
	}
	defer rows.Close()
	total := 0
	for rows.Next() {
		var loaned int
		if err := rows.Scan(&loaned); err != nil {
			return 0, wrap("scan stock loaned", err)
		}
		total += loaned
	}
	return total, wrap("lock stock items", rows.Err())
}
