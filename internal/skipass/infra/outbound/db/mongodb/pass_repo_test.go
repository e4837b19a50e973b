package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	sharedDomain "github.com/davicafu/skidash/internal/shared/domain"
	sharedQuery "github.com/davicafu/skidash/internal/shared/infra/platform/query"
	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
)

func TestCriteriaToMongoFilter_Simple(t *testing.T) {
	filter, err := criteriaToMongoFilter(skiDomain.NiveauCriteria{Niveau: skiDomain.NiveauPro})

	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "niveau", Value: bson.M{"$eq": "pro"}}}, filter)
}

func TestCriteriaToMongoFilter_RangeUsesAnd(t *testing.T) {
	filter, err := criteriaToMongoFilter(skiDomain.AgeRangeCriteria{Range: skiDomain.Range{Min: 15, Max: 30}})

	require.NoError(t, err)
	expected := bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "age", Value: bson.M{"$gte": 15.0}}},
		bson.D{{Key: "age", Value: bson.M{"$lte": 30.0}}},
	}}}
	assert.Equal(t, expected, filter)
}

func TestCriteriaToMongoFilter_Composite(t *testing.T) {
	criteria := sharedDomain.And(
		skiDomain.SaisonCriteria{Saison: skiDomain.SaisonPrintemps},
		sharedDomain.And(skiDomain.CompteCriteria{Compte: true}),
		sharedDomain.And(),
	)

	filter, err := criteriaToMongoFilter(criteria)

	require.NoError(t, err)
	expected := bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "saison", Value: bson.M{"$eq": "printemps"}}},
		bson.D{{Key: "$and", Value: bson.A{
			bson.D{{Key: "compte", Value: bson.M{"$eq": true}}},
		}}},
	}}}
	assert.Equal(t, expected, filter, "el composite vacío desaparece")
}

func TestCriteriaToMongoFilter_Empty(t *testing.T) {
	filter, err := criteriaToMongoFilter(nil)
	require.NoError(t, err)
	assert.Empty(t, filter)

	filter, err = criteriaToMongoFilter(sharedDomain.And())
	require.NoError(t, err)
	assert.Empty(t, filter)
}

func TestCriteriaToMongoFilter_FilterStateDefaults(t *testing.T) {
	// Sin filtros categóricos solo quedan los dos rangos.
	f := skiDomain.NewFilterState(skiDomain.Limits{
		Age:  skiDomain.Range{Min: 12, Max: 58},
		Prix: skiDomain.Range{Min: 80, Max: 410},
	})

	filter, err := criteriaToMongoFilter(f.Criteria())

	require.NoError(t, err)
	require.Len(t, filter, 1)
	assert.Equal(t, "$and", filter[0].Key)
	assert.Len(t, filter[0].Value, 2)
}

func TestCriteriaToMongoFilter_Rejects(t *testing.T) {
	_, err := criteriaToMongoFilter(sharedDomain.And(unknownField{}))
	assert.ErrorIs(t, err, skiDomain.ErrInvalidFilter)

	_, err = conditionToMongo(sharedDomain.Criterion{Field: "prix", Op: "<>", Value: 1})
	assert.ErrorIs(t, err, skiDomain.ErrInvalidFilter)

	xor := sharedDomain.CompositeCriteria{Operator: "XOR", Criterias: []sharedDomain.Criteria{skiDomain.SaisonCriteria{Saison: skiDomain.SaisonHiver}}}
	_, err = criteriaToMongoFilter(xor)
	assert.ErrorIs(t, err, skiDomain.ErrInvalidFilter)
}

func TestSortToMongo(t *testing.T) {
	keys, err := sortToMongo(sharedQuery.Sort{})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "_id", Value: 1}}, keys)

	keys, err = sortToMongo(sharedQuery.Sort{Field: "prix", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "prix", Value: -1}, {Key: "_id", Value: 1}}, keys)

	_, err = sortToMongo(sharedQuery.Sort{Field: "couleur"})
	assert.ErrorIs(t, err, skiDomain.ErrInvalidFilter)
}

func TestMongoPassMapping(t *testing.T) {
	p := skiDomain.SkiPass{ID: 5, Saison: skiDomain.SaisonHiver, Prix: 220.5, Age: 45, Niveau: skiDomain.NiveauPro, Compte: true, Passe: skiDomain.PasseDouble}

	mp := toMongoPass(p)

	assert.Equal(t, 5, mp.ID)
	assert.Equal(t, "hiver", mp.Saison)
	assert.Equal(t, p, fromMongoPass(mp))
}

type unknownField struct{}

func (unknownField) ToConditions() []sharedDomain.Criterion {
	return []sharedDomain.Criterion{{Field: "couleur", Op: sharedDomain.OpEq, Value: "rouge"}}
}
