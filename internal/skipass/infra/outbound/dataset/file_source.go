package dataset

import (
	"context"
	"fmt"
	"os"

	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
)

// FileSource lee el dataset de un fichero JSON local.
type FileSource struct {
	filePath string
}

var _ skiDomain.DatasetSource = (*FileSource)(nil)

func NewFileSource(filePath string) *FileSource {
	return &FileSource{filePath: filePath}
}

// Fetch falla si el fichero no existe: un dataset ausente no es un dataset vacío.
func (s *FileSource) Fetch(ctx context.Context) ([]skiDomain.SkiPass, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", s.filePath, err)
	}
	defer f.Close()

	return decodeRecords(f)
}
