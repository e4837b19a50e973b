package utils

import (
	"encoding/json"

	"go.uber.org/zap"
)

// DecodeJSON deserializa data en un valor nuevo de tipo T.
func DecodeJSON[T any](data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// UnmarshalAndHandle decodifica el payload de un evento y, si es válido, llama
// al handler. Devuelve false si el payload no se pudo decodificar.
func UnmarshalAndHandle[T any](log *zap.Logger, eventType string, data json.RawMessage, handler func(T)) bool {
	evt, err := DecodeJSON[T](data)
	if err != nil {
		log.Warn("Failed to unmarshal event data", zap.String("type", eventType), zap.Error(err))
		return false
	}
	handler(evt)
	return true
}
