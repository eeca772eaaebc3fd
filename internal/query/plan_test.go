package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"emarket/internal/domain"
	"emarket/internal/query"
)

// TestBuildPlan_Determinism testa que a mesma consulta produz sempre o mesmo plano.
func TestBuildPlan_Determinism(t *testing.T) {
	min := 20.0
	q := domain.ProductQuery{
		Keyword:    "notebook",
		Categories: []string{catA, catB},
		MinPrice:   &min,
		Sort:       "-popularity",
		Page:       3,
		Limit:      12,
	}

	first, err := query.BuildPlan(q)
	assert.NoError(t, err)
	second, err := query.BuildPlan(q)
	assert.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestBuildPlan_SkipLimit testa a aritmética de paginação (página já normalizada).
func TestBuildPlan_SkipLimit(t *testing.T) {
	plan, err := query.BuildPlan(domain.ProductQuery{Page: 1, Limit: 12})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), plan.Skip)
	assert.Equal(t, int64(12), plan.Limit)

	plan, err = query.BuildPlan(domain.ProductQuery{Page: 4, Limit: 25})
	assert.NoError(t, err)
	assert.Equal(t, int64(75), plan.Skip)
	assert.Equal(t, int64(25), plan.Limit)
}

// TestBuildPlan_PathSelection testa a escolha entre caminho direto e agregação:
// apenas popularidade agrega.
func TestBuildPlan_PathSelection(t *testing.T) {
	plan, err := query.BuildPlan(domain.ProductQuery{Keyword: "cafe", Sort: "-price", Page: 1, Limit: 12})
	assert.NoError(t, err)
	assert.False(t, plan.RequiresAggregation)
	assert.True(t, plan.TextSearch)

	plan, err = query.BuildPlan(domain.ProductQuery{Sort: "popularity", Page: 1, Limit: 12})
	assert.NoError(t, err)
	assert.True(t, plan.RequiresAggregation)
	assert.Equal(t, 1, plan.PopularityDir)
}

// TestBuildPlan_ValidationBeforeStore testa que erros de validação saem da
// montagem do plano (nenhum acesso ao store acontece com consulta inválida).
func TestBuildPlan_ValidationBeforeStore(t *testing.T) {
	_, err := query.BuildPlan(domain.ProductQuery{DateFrom: "invalida", Page: 1, Limit: 12})
	assert.Error(t, err)

	_, err = query.BuildPlan(domain.ProductQuery{Categories: []string{"xyz"}, Page: 1, Limit: 12})
	assert.Error(t, err)
}

// TestEchoFilters testa o bloco de filtros ecoado no meta: null quando ausentes,
// valores normalizados quando presentes.
func TestEchoFilters(t *testing.T) {
	// Sem filtros: tudo null/vazio
	plan, err := query.BuildPlan(domain.ProductQuery{Page: 1, Limit: 12})
	assert.NoError(t, err)

	filters := plan.EchoFilters()
	assert.Nil(t, filters.Keyword)
	assert.Nil(t, filters.Categories)
	assert.Nil(t, filters.MinPrice)
	assert.Nil(t, filters.MaxPrice)

	// Com filtros: os valores resolvidos
	max := 150.0
	plan, err = query.BuildPlan(domain.ProductQuery{
		Keyword:    "fone",
		Categories: []string{catA + "," + catA}, // duplicata some no eco também
		MaxPrice:   &max,
		Page:       1,
		Limit:      12,
	})
	assert.NoError(t, err)

	filters = plan.EchoFilters()
	assert.NotNil(t, filters.Keyword)
	assert.Equal(t, "fone", *filters.Keyword)
	assert.Equal(t, []string{catA}, filters.Categories)
	assert.Nil(t, filters.MinPrice)
	assert.Equal(t, &max, filters.MaxPrice)
}

// TestBuildPipeline_StageOrder testa a ordem dos estágios da agregação:
// $match -> ($addFields score) -> $lookup -> $addFields -> $project -> $sort -> $facet.
func TestBuildPipeline_StageOrder(t *testing.T) {
	plan, err := query.BuildPlan(domain.ProductQuery{Sort: "-popularity", Page: 2, Limit: 12})
	assert.NoError(t, err)

	pipeline := query.BuildPipeline(plan)
	assert.Len(t, pipeline, 6) // sem busca textual não há estágio de score

	stages := stageNames(pipeline)
	assert.Equal(t, []string{"$match", "$lookup", "$addFields", "$project", "$sort", "$facet"}, stages)
}

// TestBuildPipeline_TextSearchAddsScoreStage testa que a busca textual insere o
// estágio de score logo após o $match.
func TestBuildPipeline_TextSearchAddsScoreStage(t *testing.T) {
	plan, err := query.BuildPlan(domain.ProductQuery{Keyword: "luminária", Sort: "popularity", Page: 1, Limit: 12})
	assert.NoError(t, err)

	pipeline := query.BuildPipeline(plan)
	assert.Len(t, pipeline, 7)

	stages := stageNames(pipeline)
	assert.Equal(t, []string{"$match", "$addFields", "$lookup", "$addFields", "$project", "$sort", "$facet"}, stages)
}

// TestBuildPipeline_SortStage testa a ordenação determinística da agregação:
// reviewCount na direção pedida, score (se busca) e createdAt como desempates.
func TestBuildPipeline_SortStage(t *testing.T) {
	plan, err := query.BuildPlan(domain.ProductQuery{Keyword: "mesa", Sort: "-popularity", Page: 1, Limit: 12})
	assert.NoError(t, err)

	pipeline := query.BuildPipeline(plan)
	sortStage := findStage(t, pipeline, "$sort")

	assert.Equal(t, bson.D{
		{Key: "reviewCount", Value: -1},
		{Key: "score", Value: -1},
		{Key: "createdAt", Value: -1},
	}, sortStage)
}

// TestBuildPipeline_FacetStage testa que o $facet pagina os dados e conta o total
// sobre o mesmo conjunto, em uma única submissão.
func TestBuildPipeline_FacetStage(t *testing.T) {
	plan, err := query.BuildPlan(domain.ProductQuery{Sort: "popularity", Page: 3, Limit: 10})
	assert.NoError(t, err)

	pipeline := query.BuildPipeline(plan)
	facetStage, ok := findStage(t, pipeline, "$facet").(bson.M)
	assert.True(t, ok)

	assert.Equal(t, bson.A{
		bson.M{"$skip": int64(20)},
		bson.M{"$limit": int64(10)},
	}, facetStage["data"])
	assert.Equal(t, bson.A{bson.M{"$count": "count"}}, facetStage["total"])
}

// TestBuildPipeline_MatchUsesPlanFilter testa que o $match carrega o mesmo
// predicado do caminho direto.
func TestBuildPipeline_MatchUsesPlanFilter(t *testing.T) {
	min := 30.0
	plan, err := query.BuildPlan(domain.ProductQuery{
		Categories: []string{catA},
		MinPrice:   &min,
		Sort:       "popularity",
		Page:       1,
		Limit:      12,
	})
	assert.NoError(t, err)

	pipeline := query.BuildPipeline(plan)
	matchStage := findStage(t, pipeline, "$match")

	assert.Equal(t, plan.Filter, matchStage)
}

// --- Auxiliares ---

func stageNames(pipeline []bson.D) []string {
	names := make([]string, 0, len(pipeline))
	for _, stage := range pipeline {
		names = append(names, stage[0].Key)
	}
	return names
}

func findStage(t *testing.T, pipeline []bson.D, name string) interface{} {
	t.Helper()
	for _, stage := range pipeline {
		if stage[0].Key == name {
			return stage[0].Value
		}
	}
	t.Fatalf("estágio %s não encontrado no pipeline", name)
	return nil
}
