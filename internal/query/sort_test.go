package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"emarket/internal/query"
)

// TestResolveSort_ExplicitTokens testa o mapeamento de cada token aceito.
func TestResolveSort_ExplicitTokens(t *testing.T) {
	spec := query.ResolveSort("price", false)
	assert.Equal(t, "price", spec.Token)
	assert.Equal(t, bson.D{{Key: "price", Value: 1}}, spec.Direct)
	assert.False(t, spec.RequiresAggregation)

	spec = query.ResolveSort("-price", false)
	assert.Equal(t, "-price", spec.Token)
	assert.Equal(t, bson.D{{Key: "price", Value: -1}}, spec.Direct)

	spec = query.ResolveSort("date", false)
	assert.Equal(t, "date", spec.Token)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: 1}}, spec.Direct)

	spec = query.ResolveSort("-date", false)
	assert.Equal(t, "-date", spec.Token)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, spec.Direct)
}

// TestResolveSort_Popularity testa que popularidade exige o caminho de agregação.
func TestResolveSort_Popularity(t *testing.T) {
	spec := query.ResolveSort("popularity", false)
	assert.Equal(t, "popularity", spec.Token)
	assert.True(t, spec.RequiresAggregation)
	assert.Equal(t, 1, spec.PopularityDir)
	assert.Empty(t, spec.Direct)

	spec = query.ResolveSort("-popularity", true)
	assert.Equal(t, "-popularity", spec.Token)
	assert.True(t, spec.RequiresAggregation)
	assert.Equal(t, -1, spec.PopularityDir)
}

// TestResolveSort_DefaultWithoutText testa o padrão sem busca: mais novos primeiro,
// com o token "-date" resolvido para o eco no meta.
func TestResolveSort_DefaultWithoutText(t *testing.T) {
	spec := query.ResolveSort("", false)

	assert.Equal(t, "-date", spec.Token)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, spec.Direct)
	assert.False(t, spec.RequiresAggregation)
}

// TestResolveSort_DefaultWithText testa o padrão com busca textual: relevância
// primária e recência como desempate determinístico.
func TestResolveSort_DefaultWithText(t *testing.T) {
	spec := query.ResolveSort("", true)

	assert.Equal(t, "relevance", spec.Token)
	assert.False(t, spec.RequiresAggregation)
	assert.Equal(t, bson.D{
		{Key: "score", Value: bson.M{"$meta": "textScore"}},
		{Key: "createdAt", Value: -1},
	}, spec.Direct)
}

// TestResolveSort_UnknownTokenFallsBack testa que tokens desconhecidos caem no
// padrão em vez de vazar erro.
func TestResolveSort_UnknownTokenFallsBack(t *testing.T) {
	spec := query.ResolveSort("name", false)
	assert.Equal(t, "-date", spec.Token)

	spec = query.ResolveSort("PRICE", true) // case-sensitive: não é um token aceito
	assert.Equal(t, "relevance", spec.Token)
}

// TestResolveSort_ExplicitTokenBeatsText testa que um token explícito tem
// precedência sobre a relevância mesmo com busca ativa.
func TestResolveSort_ExplicitTokenBeatsText(t *testing.T) {
	spec := query.ResolveSort("-price", true)

	assert.Equal(t, "-price", spec.Token)
	assert.Equal(t, bson.D{{Key: "price", Value: -1}}, spec.Direct)
}
