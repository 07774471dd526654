package repository

import (
	"context"

	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

// EmployeeRepository puerto del directorio de empleados.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *entity.Employee) error
	// GetByID devuelve el empleado o nil, nil.
	GetByID(ctx context.Context, id string) (*entity.Employee, error)
	// Exists indica si el empleado existe y está activo.
	Exists(ctx context.Context, id string) (bool, error)
}
