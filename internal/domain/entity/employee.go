package entity

import "time"

// Employee empleado que recibe préstamos (lo administra el directorio externo).
type Employee struct {
	ID        string
	Name      string
	Email     string
	Active    bool
	CreatedAt time.Time
}
