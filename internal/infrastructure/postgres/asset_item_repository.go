package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"

	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/repository"
)

var _ repository.AssetItemRepository = (*AssetItemRepo)(nil)

// AssetItemRepo implementación de AssetItemRepository sobre PostgreSQL (usable con pool o tx).
type AssetItemRepo struct {
	q Querier
}

// NewAssetItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAssetItemRepository(q Querier) *AssetItemRepo {
	return &AssetItemRepo{q: q}
}

const assetItemColumns = `id, model_id, COALESCE(serial, ''), COALESCE(tag, ''), notes, status, created_at, updated_at`

// Create persiste un equipo.
func (r *AssetItemRepo) Create(ctx context.Context, it *entity.AssetItem) error {
	query := `
		INSERT INTO asset_items (id, model_id, serial, tag, notes, status, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query, it.ID, it.ModelID, it.Serial, it.Tag, it.Notes, it.Status, it.CreatedAt, it.UpdatedAt)
	if isForeignKeyViolation(err) {
		return domain.ErrAssetModelNotFound
	}
	if isUniqueViolation(err) {
		return &domain.Error{Kind: domain.ErrConflict, Code: "DUPLICATE_SERIAL", Message: "serial o etiqueta ya registrado"}
	}
	return wrap("insert asset item", err)
}

// GetByID obtiene un equipo por ID.
func (r *AssetItemRepo) GetByID(ctx context.Context, id string) (*entity.AssetItem, error) {
	if !validID(id) {
		return nil, nil
	}
	var it entity.AssetItem
	err := r.q.QueryRow(ctx, `SELECT `+assetItemColumns+` FROM asset_items WHERE id = $1`, id).Scan(
		&it.ID, &it.ModelID, &it.Serial, &it.Tag, &it.Notes, &it.Status, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get asset item", err)
	}
	return &it, nil
}

// ListByModel lista los equipos de un modelo.
func (r *AssetItemRepo) ListByModel(ctx context.Context, modelID string) ([]*entity.AssetItem, error) {
	if !validID(modelID) {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `SELECT `+assetItemColumns+` FROM asset_items WHERE model_id = $1 ORDER BY created_at, id`, modelID)
	if err != nil {
		return nil, wrap("list asset items", err)
	}
	defer rows.Close()
	var list []*entity.AssetItem
	for rows.Next() {
		var it entity.AssetItem
		if err := rows.Scan(&it.ID, &it.ModelID, &it.Serial, &it.Tag, &it.Notes, &it.Status, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, wrap("scan asset item", err)
		}
		list = append(list, &it)
	}
	return list, wrap("list asset items", rows.Err())
}

// TransitionStatus UPDATE condicional: el estado esperado se verifica en la misma
// escritura, así dos reservas concurrentes nunca ganan ambas.
func (r *AssetItemRepo) TransitionStatus(ctx context.Context, id string, to entity.AssetStatus, from ...entity.AssetStatus) (bool, error) {
	if !validID(id) || len(from) == 0 {
		return false, nil
	}
	query := `
		UPDATE asset_items SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)`
	fromStr := lo.Map(from, func(s entity.AssetStatus, _ int) string { return string(s) })
	cmd, err := r.q.Exec(ctx, query, id, string(to), fromStr)
	if err != nil {
		return false, wrap("transition asset status", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// LockByModel bloquea los equipos del modelo (SELECT FOR UPDATE) y cuenta los prestados.
func (r *AssetItemRepo) LockByModel(ctx context.Context, modelID string) (int, error) {
	if !validID(modelID) {
		return 0, nil
	}
	rows, err := r.q.Query(ctx, `SELECT status FROM asset_items WHERE model_id = $1 FOR UPDATE`, modelID)
	if err != nil {
		return 0, wrap("lock asset items", err)
	}
	defer rows.Close()
	loaned := 0
	for rows.Next() {
		var st entity.AssetStatus
		if err := rows.Scan(&st); err != nil {
			return 0, wrap("scan asset status", err)
		}
		if st == entity.AssetStatusLoaned {
			loaned++
		}
	}
	return loaned, wrap("lock asset items", rows.Err())
}
