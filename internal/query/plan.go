package query

import (
	"go.mongodb.org/mongo-driver/bson"

	"emarket/internal/domain"
)

// Plan é a unidade de execução efêmera montada a partir de uma ProductQuery já
// normalizada (page/limit ajustados pelo serviço). Os dois caminhos de execução
// carregam o mesmo filtro, o mesmo skip/limit e os mesmos valores de eco,
// garantindo paridade de formato na resposta.
// Invariante: a mesma consulta produz sempre um plano equivalente (determinismo).
type Plan struct {
	Filter              bson.M
	Sort                bson.D
	Skip                int64
	Limit               int64
	TextSearch          bool
	RequiresAggregation bool
	PopularityDir       int
	SortToken           string

	// Valores resolvidos, ecoados no meta da resposta.
	Keyword    string
	Categories []string
	MinPrice   *float64
	MaxPrice   *float64
}

// BuildPlan é o ponto único de decisão entre o caminho direto e o de agregação.
func BuildPlan(q domain.ProductQuery) (Plan, error) {
	filter, err := BuildFilter(q)
	if err != nil {
		return Plan{}, err
	}

	spec := ResolveSort(q.Sort, filter.TextSearch)

	return Plan{
		Filter:              filter.Predicate,
		Sort:                spec.Direct,
		Skip:                int64(q.Page-1) * int64(q.Limit),
		Limit:               int64(q.Limit),
		TextSearch:          filter.TextSearch,
		RequiresAggregation: spec.RequiresAggregation,
		PopularityDir:       spec.PopularityDir,
		SortToken:           spec.Token,
		Keyword:             filter.Keyword,
		Categories:          filter.Categories,
		MinPrice:            filter.MinPrice,
		MaxPrice:            filter.MaxPrice,
	}, nil
}

// EchoFilters devolve o bloco de filtros ecoado no meta (null quando ausentes).
// O formato é idêntico qualquer que seja o caminho executado.
func (p Plan) EchoFilters() domain.ListFilters {
	filters := domain.ListFilters{
		Categories: p.Categories,
		MinPrice:   p.MinPrice,
		MaxPrice:   p.MaxPrice,
	}
	if p.Keyword != "" {
		keyword := p.Keyword
		filters.Keyword = &keyword
	}
	return filters
}

// LogFields descreve o plano resolvido para logging de erros do store
// (contexto suficiente para reproduzir a execução).
func (p Plan) LogFields() map[string]interface{} {
	return map[string]interface{}{
		"filter":      p.Filter,
		"sort":        p.SortToken,
		"skip":        p.Skip,
		"limit":       p.Limit,
		"aggregation": p.RequiresAggregation,
		"text_search": p.TextSearch,
	}
}
