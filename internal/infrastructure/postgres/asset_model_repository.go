package postgres

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/repository"
)

var _ repository.AssetModelRepository = (*AssetModelRepo)(nil)

// AssetModelRepo implementación de AssetModelRepository sobre PostgreSQL (usable con pool o tx).
type AssetModelRepo struct {
	q  Querier
	sb sq.StatementBuilderType
}

// NewAssetModelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAssetModelRepository(q Querier) *AssetModelRepo {
	return &AssetModelRepo{q: q, sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

// Create persiste un nuevo modelo.
func (r *AssetModelRepo) Create(ctx context.Context, m *entity.AssetModel) error {
	query := `
		INSERT INTO asset_models (id, type, brand, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, m.ID, m.Type, m.Brand, m.Name, m.CreatedAt, m.UpdatedAt)
	return wrap("insert asset model", err)
}

// GetByID obtiene un modelo por ID.
func (r *AssetModelRepo) GetByID(ctx context.Context, id string) (*entity.AssetModel, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate obtiene el modelo con SELECT ... FOR UPDATE.
func (r *AssetModelRepo) GetForUpdate(ctx context.Context, id string) (*entity.AssetModel, error) {
	return r.get(ctx, id, true)
}

func (r *AssetModelRepo) get(ctx context.Context, id string, lock bool) (*entity.AssetModel, error) {
	if !validID(id) {
		return nil, nil
	}
	query := `
		SELECT id, type, brand, name, created_at, updated_at
		FROM asset_models WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	var m entity.AssetModel
	err := r.q.QueryRow(ctx, query, id).Scan(&m.ID, &m.Type, &m.Brand, &m.Name, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get asset model", err)
	}
	return &m, nil
}

// List lista modelos con el conteo de unidades y de stock.
func (r *AssetModelRepo) List(ctx context.Context, f repository.AssetModelFilter) ([]*entity.AssetModelSummary, error) {
	q := r.sb.
		Select(
			"m.id", "m.type", "m.brand", "m.name", "m.created_at", "m.updated_at",
			"(SELECT count(*) FROM asset_items i WHERE i.model_id = m.id)",
			"(SELECT count(*) FROM asset_items i WHERE i.model_id = m.id AND i.status = 'PRETE')",
			"COALESCE((SELECT sum(s.quantity) FROM stock_items s WHERE s.model_id = m.id), 0)",
			"COALESCE((SELECT sum(s.loaned) FROM stock_items s WHERE s.model_id = m.id), 0)",
		).
		From("asset_models m").
		OrderBy("m.type", "m.brand", "m.name")
	if f.Type != "" {
		q = q.Where(sq.Eq{"m.type": f.Type})
	}
	if f.Brand != "" {
		q = q.Where(sq.Eq{"m.brand": f.Brand})
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
		return nil, wrap("list asset models", err)
	}
	defer rows.Close()
	var list []*entity.AssetModelSummary
	for rows.Next() {
		var s entity.AssetModelSummary
		if err := rows.Scan(&s.ID, &s.Type, &s.Brand, &s.Name, &s.CreatedAt, &s.UpdatedAt,
			&s.ItemCount, &s.LoanedItems, &s.StockQuantity, &s.StockLoaned); err != nil {
			return nil, wrap("scan asset model", err)
		}
		list = append(list, &s)
	}
	return list, wrap("list asset models", rows.Err())
}

// Delete elimina el modelo; equipos y stock caen por ON DELETE CASCADE.
func (r *AssetModelRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM asset_models WHERE id = $1`, id)
	if err != nil {
		return false, wrap("delete asset model", err)
	}
	return cmd.RowsAffected() == 1, nil
}
