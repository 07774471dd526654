// Package memory implementa el contrato de unidad de trabajo en memoria.
// Las transacciones se serializan con un único lock y trabajan sobre una copia
// del estado que solo se publica si fn termina sin error (Commit) y el contexto
// sigue vigente; cualquier otra salida descarta la copia (Rollback).
package memory

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/jhoicas/prestamos-api/internal/application/reservation"
	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/repository"
)

var (
	_ reservation.TxRunner          = (*Store)(nil)
	_ reservation.EmployeeDirectory = (*Store)(nil)
	_ repository.EmployeeRepository = (*Store)(nil)
)

type state struct {
	models    map[string]entity.AssetModel
	items     map[string]entity.AssetItem
	stock     map[string]entity.StockItem
	loans     map[string]entity.Loan
	lines     map[string]entity.LoanLine
	employees map[string]entity.Employee
}

func newState() *state {
	return &state{
		models:    map[string]entity.AssetModel{},
		items:     map[string]entity.AssetItem{},
		stock:     map[string]entity.StockItem{},
		loans:     map[string]entity.Loan{},
		lines:     map[string]entity.LoanLine{},
		employees: map[string]entity.Employee{},
	}
}

// clone copia los mapas; los valores son structs sin punteros compartidos salvo
// los *time.Time, que nunca se mutan en sitio.
func (s *state) clone() *state {
	return &state{
		models:    maps.Clone(s.models),
		items:     maps.Clone(s.items),
		stock:     maps.Clone(s.stock),
		loans:     maps.Clone(s.loans),
		lines:     maps.Clone(s.lines),
		employees: maps.Clone(s.employees),
	}
}

// Store almacenamiento en memoria (modo desarrollo y tests).
// Los ids se copian al guardarse: el store nunca retiene strings del llamador,
// que pueden apuntar a buffers reutilizados (parámetros de ruta de fiber).
type Store struct {
	mu       sync.Mutex
	st       *state
	failures int
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Run ejecuta fn en una transacción serializable.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, uow reservation.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failures > 0 {
		s.failures--
		return fmt.Errorf("%w: fallo simulado", domain.ErrTransientStorage)
	}

	work := s.st.clone()
	if err := fn(ctx, &unitOfWork{st: work}); err != nil {
		return err
	}
	// una transacción abortada por timeout no deja estado parcial
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

// FailNext hace que las próximas n transacciones fallen con ErrTransientStorage.
func (s *Store) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
}

// Exists implementa reservation.EmployeeDirectory.
func (s *Store) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.st.employees[id]
	return ok && e.Active, nil
}

// GetByID devuelve el empleado o nil, nil.
func (s *Store) GetByID(_ context.Context, id string) (*entity.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.st.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// Create registra un empleado (implementa repository.EmployeeRepository).
func (s *Store) Create(_ context.Context, employee *entity.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := *employee
	e.ID = strings.Clone(e.ID)
	s.st.employees[e.ID] = e
	return nil
}

type unitOfWork struct {
	st *state
}

func (u *unitOfWork) Models() repository.AssetModelRepository { return &modelRepo{st: u.st} }

func (u *unitOfWork) Items() repository.AssetItemRepository { return &itemRepo{st: u.st} }

func (u *unitOfWork) Stock() repository.StockItemRepository { return &stockRepo{st: u.st} }

func (u *unitOfWork) Loans() repository.LoanRepository { return &loanRepo{st: u.st} }
