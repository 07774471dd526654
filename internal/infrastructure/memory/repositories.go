package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/repository"
)

type modelRepo struct{ st *state }

func (r *modelRepo) Create(_ context.Context, model *entity.AssetModel) error {
	m := *model
	m.ID = strings.Clone(m.ID)
	r.st.models[m.ID] = m
	return nil
}

func (r *modelRepo) GetByID(_ context.Context, id string) (*entity.AssetModel, error) {
	m, ok := r.st.models[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *modelRepo) GetForUpdate(ctx context.Context, id string) (*entity.AssetModel, error) {
	return r.GetByID(ctx, id)
}

func (r *modelRepo) List(_ context.Context, f repository.AssetModelFilter) ([]*entity.AssetModelSummary, error) {
	var list []*entity.AssetModelSummary
	for _, m := range r.st.models {
		if (f.Type != "" && m.Type != f.Type) || (f.Brand != "" && m.Brand != f.Brand) {
			continue
		}
		sum := &entity.AssetModelSummary{AssetModel: m}
		for _, it := range r.st.items {
			if it.ModelID == m.ID {
				sum.ItemCount++
				if it.Status == entity.AssetStatusLoaned {
					sum.LoanedItems++
				}
			}
		}
		for _, s := range r.st.stock {
			if s.ModelID == m.ID {
				sum.StockQuantity += s.Quantity
				sum.StockLoaned += s.Loaned
			}
		}
		list = append(list, sum)
	}
	slices.SortFunc(list, func(a, b *entity.AssetModelSummary) int {
		return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.Brand, b.Brand), cmp.Compare(a.Name, b.Name))
	})
	return page(list, f.Limit, f.Offset), nil
}

func (r *modelRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := r.st.models[id]; !ok {
		return false, nil
	}
	delete(r.st.models, id)
	for k, it := range r.st.items {
		if it.ModelID == id {
			delete(r.st.items, k)
		}
	}
	for k, s := range r.st.stock {
		if s.ModelID == id {
			delete(r.st.stock, k)
		}
	}
	return true, nil
}

type itemRepo struct{ st *state }

func (r *itemRepo) Create(_ context.Context, item *entity.AssetItem) error {
	if _, ok := r.st.models[item.ModelID]; !ok {
		return domain.ErrAssetModelNotFound
	}
	it := *item
	it.ID, it.ModelID = strings.Clone(it.ID), strings.Clone(it.ModelID)
	r.st.items[it.ID] = it
	return nil
}

func (r *itemRepo) GetByID(_ context.Context, id string) (*entity.AssetItem, error) {
	it, ok := r.st.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (r *itemRepo) ListByModel(_ context.Context, modelID string) ([]*entity.AssetItem, error) {
	var list []*entity.AssetItem
	for _, it := range r.st.items {
		if it.ModelID == modelID {
			list = append(list, &it)
		}
	}
	slices.SortFunc(list, func(a, b *entity.AssetItem) int { return cmp.Compare(a.ID, b.ID) })
	return list, nil
}

func (r *itemRepo) TransitionStatus(_ context.Context, id string, to entity.AssetStatus, from ...entity.AssetStatus) (bool, error) {
	it, ok := r.st.items[id]
	if !ok || !slices.Contains(from, it.Status) {
		return false, nil
	}
	it.Status = to
	it.UpdatedAt = time.Now().UTC()
	r.st.items[it.ID] = it
	return true, nil
}

func (r *itemRepo) LockByModel(_ context.Context, modelID string) (int, error) {
	n := 0
	for _, it := range r.st.items {
		if it.ModelID == modelID && it.Status == entity.AssetStatusLoaned {
			n++
		}
	}
	return n, nil
}

type stockRepo struct{ st *state }

func (r *stockRepo) Create(_ context.Context, stock *entity.StockItem) error {
	if _, ok := r.st.models[stock.ModelID]; !ok {
		return domain.ErrAssetModelNotFound
	}
	st := *stock
	st.ID, st.ModelID = strings.Clone(st.ID), strings.Clone(st.ModelID)
	r.st.stock[st.ID] = st
	return nil
}

func (r *stockRepo) GetByID(_ context.Context, id string) (*entity.StockItem, error) {
	s, ok := r.st.stock[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *stockRepo) ListByModel(_ context.Context, modelID string) ([]*entity.StockItem, error) {
	var list []*entity.StockItem
	for _, s := range r.st.stock {
		if s.ModelID == modelID {
			list = append(list, &s)
		}
	}
	slices.SortFunc(list, func(a, b *entity.StockItem) int { return cmp.Compare(a.ID, b.ID) })
	return list, nil
}

func (r *stockRepo) Reserve(_ context.Context, id string, qty int) (bool, error) {
	s, ok := r.st.stock[id]
	if !ok || s.Quantity-s.Loaned < qty {
		return false, nil
	}
	s.Loaned += qty
	s.UpdatedAt = time.Now().UTC()
	r.st.stock[s.ID] = s
	return true, nil
}

func (r *stockRepo) Release(_ context.Context, id string, qty int) (bool, error) {
	s, ok := r.st.stock[id]
	if !ok {
		return false, nil
	}
	s.Loaned = max(s.Loaned-qty, 0)
	s.UpdatedAt = time.Now().UTC()
	r.st.stock[s.ID] = s
	return true, nil
}

func (r *stockRepo) SetQuantity(_ context.Context, id string, quantity int) (bool, error) {
	s, ok := r.st.stock[id]
	if !ok || quantity < s.Loaned {
		return false, nil
	}
	s.Quantity = quantity
	s.UpdatedAt = time.Now().UTC()
	r.st.stock[s.ID] = s
	return true, nil
}

func (r *stockRepo) LockByModel(_ context.Context, modelID string) (int, error) {
	n := 0
	for _, s := range r.st.stock {
		if s.ModelID == modelID {
			n += s.Loaned
		}
	}
	return n, nil
}

type loanRepo struct{ st *state }

func (r *loanRepo) Create(_ context.Context, loan *entity.Loan) error {
	l := *loan
	l.Lines = nil
	l.ID, l.EmployeeID, l.OpenedBy = strings.Clone(l.ID), strings.Clone(l.EmployeeID), strings.Clone(l.OpenedBy)
	r.st.loans[l.ID] = l
	return nil
}

func (r *loanRepo) GetByID(_ context.Context, id string) (*entity.Loan, error) {
	l, ok := r.st.loans[id]
	if !ok {
		return nil, nil
	}
	l.Lines = r.linesOf(id)
	return &l, nil
}

func (r *loanRepo) GetForUpdate(ctx context.Context, id string) (*entity.Loan, error) {
	return r.GetByID(ctx, id)
}

func (r *loanRepo) List(_ context.Context, f repository.LoanFilter) ([]*entity.Loan, error) {
	var list []*entity.Loan
	for _, l := range r.st.loans {
		if (f.EmployeeID != "" && l.EmployeeID != f.EmployeeID) || (f.Status != "" && l.Status != f.Status) {
			continue
		}
		l.Lines = r.linesOf(l.ID)
		list = append(list, &l)
	}
	slices.SortFunc(list, func(a, b *entity.Loan) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return page(list, f.Limit, f.Offset), nil
}

func (r *loanRepo) AddLine(_ context.Context, line *entity.LoanLine) error {
	pos := 0
	for _, ln := range r.st.lines {
		if ln.LoanID == line.LoanID {
			pos = max(pos, ln.Position)
		}
		// mismo resguardo que el índice único parcial de PostgreSQL
		if line.Target.Kind() == entity.LineKindAsset && ln.Target.Kind() == entity.LineKindAsset &&
			ln.Target.TargetID() == line.Target.TargetID() && !ln.Returned() {
			return domain.ErrAssetAlreadyLoaned
		}
	}
	target, err := entity.RestoreLineTarget(line.Target.Kind(), strings.Clone(line.Target.TargetID()), line.Target.Quantity())
	if err != nil {
		return err
	}
	line.Position = pos + 1
	ln := *line
	ln.ID, ln.LoanID, ln.Target = strings.Clone(ln.ID), strings.Clone(ln.LoanID), target
	r.st.lines[ln.ID] = ln
	return nil
}

func (r *loanRepo) GetLine(_ context.Context, lineID string) (*entity.LoanLine, error) {
	ln, ok := r.st.lines[lineID]
	if !ok {
		return nil, nil
	}
	return &ln, nil
}

func (r *loanRepo) MarkLineReturned(_ context.Context, lineID string, at time.Time) (bool, error) {
	ln, ok := r.st.lines[lineID]
	if !ok || ln.Returned() {
		return false, nil
	}
	ln.ReturnedAt = &at
	r.st.lines[ln.ID] = ln
	return true, nil
}

func (r *loanRepo) Close(_ context.Context, loanID string, at time.Time) (bool, error) {
	l, ok := r.st.loans[loanID]
	if !ok || l.Status != entity.LoanStatusOpen {
		return false, nil
	}
	l.Status = entity.LoanStatusClosed
	l.ClosedAt = &at
	r.st.loans[l.ID] = l
	return true, nil
}

func (r *loanRepo) SetSignature(_ context.Context, loanID string, kind entity.SignatureKind, ref string) error {
	ref = strings.Clone(ref)
	l, ok := r.st.loans[loanID]
	if !ok {
		return domain.ErrLoanNotFound
	}
	if kind == entity.SignaturePickup {
		l.PickupSignature = ref
	} else {
		l.ReturnSignature = ref
	}
	r.st.loans[l.ID] = l
	return nil
}

func (r *loanRepo) linesOf(loanID string) []entity.LoanLine {
	var lines []entity.LoanLine
	for _, ln := range r.st.lines {
		if ln.LoanID == loanID {
			lines = append(lines, ln)
		}
	}
	slices.SortFunc(lines, func(a, b entity.LoanLine) int { return cmp.Compare(a.Position, b.Position) })
	return lines
}

func page[T any](list []T, limit, offset int) []T {
	offset = max(offset, 0)
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
