package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
)

var (
	errEmptyDocument = errors.New("empty dataset document")
	errNullDocument  = errors.New("dataset document is null")
)

// decodeRecords decodifica en streaming un array JSON de forfaits.
// Un cuerpo vacío, un null o datos tras el array son errores; "[]" es una colección vacía.
func decodeRecords(r io.Reader) ([]skiDomain.SkiPass, error) {
	dec := json.NewDecoder(r)

	var records []skiDomain.SkiPass
	if err := dec.Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode dataset: %w", errEmptyDocument)
		}
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if records == nil {
		return nil, fmt.Errorf("decode dataset: %w", errNullDocument)
	}
	if dec.More() {
		return nil, errors.New("decode dataset: unexpected data after the array")
	}
	return records, nil
}
