package loader

import (
	"context"
	"errors"
)

// Error is a constant error type used for sentinel errors.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrUnauthorized is returned for 401 and 403 responses.
	ErrUnauthorized = Error("unauthorized")

	ErrNotFound = Error("not found")

	// ErrUnexpectedStatus covers every other non-2xx response.
	ErrUnexpectedStatus = Error("unexpected response status")

	ErrTimeout = Error("timeout")

	// ErrTransport is returned when the request never produced a response.
	ErrTransport = Error("transport failure")

	// ErrDecode means the body was not valid JSON.
	ErrDecode = Error("invalid JSON body")

	// ErrTooLarge means the body exceeded the read limit.
	ErrTooLarge = Error("response body too large")

	// ErrNotArray means the body was valid JSON but not an array of readings.
	ErrNotArray = Error("response body is not a JSON array")
)

// UserMessage maps a fetch error to the text shown on the screen.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "Acesso negado: o token informado não foi aceito pelo servidor."
	case errors.Is(err, ErrNotFound):
		return "Endpoint de dados dos sensores não encontrado."
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "O servidor de sensores demorou demais para responder."
	case errors.Is(err, ErrTransport):
		return "Não foi possível conectar ao servidor de sensores."
	case errors.Is(err, ErrTooLarge):
		return "O servidor de sensores enviou dados demais para exibir."
	case errors.Is(err, ErrDecode), errors.Is(err, ErrNotArray):
		return "O servidor de sensores respondeu em um formato inesperado."
	default:
		return "Erro ao buscar dados dos sensores."
	}
}
