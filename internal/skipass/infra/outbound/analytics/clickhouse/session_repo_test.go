package clickhouse

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
)

func TestSessionLogRow(t *testing.T) {
	id := uuid.New()
	occurred := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	eventTime := occurred.Add(time.Second)
	change := skiDomain.SessionChanged{
		SessionID: id,
		Version:   4,
		Change:    skiDomain.ChangeFilter,
		Field:     "niveau",
		Filters: skiDomain.FilterState{
			Saison:     skiDomain.All,
			Niveau:     "pro",
			Compte:     skiDomain.CompteTrue,
			Passe:      skiDomain.All,
			AgeRange:   skiDomain.Range{Min: 12, Max: 58},
			PriceRange: skiDomain.Range{Min: 80, Max: 410},
		},
		Page:          1,
		Criteria:      skiDomain.CriteriaSaison,
		FilteredCount: 2,
		OccurredAt:    occurred,
	}

	row, err := sessionLogRow(change, eventTime)

	require.NoError(t, err)
	require.Len(t, row, 18, "una columna por cada campo del INSERT")
	assert.Equal(t, id, row[0])
	assert.Equal(t, int64(4), row[1])
	assert.Equal(t, "filter", row[2])
	assert.Equal(t, "niveau", row[3])
	assert.Equal(t, "pro", row[5])
	assert.Equal(t, "true", row[6])
	assert.Equal(t, 12.0, row[8])
	assert.Equal(t, 410.0, row[11])
	assert.Equal(t, "saison", row[12])
	assert.Equal(t, int32(1), row[13])
	assert.Equal(t, int32(2), row[14])
	assert.JSONEq(t, `{"saison":"all","niveau":"pro","compte":"true","passe":"all","ageRange":[12,58],"priceRange":[80,410]}`, row[15].(string))
	assert.Equal(t, occurred, row[16])
	assert.Equal(t, eventTime, row[17])
}
