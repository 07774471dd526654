package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/domain"
)

// statusFor traduce la categoría del error a un código HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrTransientStorage):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// writeError responde con {code, message}. Los errores internos no exponen su detalle.
func writeError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case fiber.StatusServiceUnavailable:
		msg = "almacenamiento no disponible, intente más tarde"
	case fiber.StatusInternalServerError:
		log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: domain.OutcomeCode(err), Message: msg})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// ErrorHandler manejador de errores de Fiber para lo que no respondió un handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
	}
	return writeError(c, err)
}
