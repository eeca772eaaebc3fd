package query

import (
	"go.mongodb.org/mongo-driver/bson"
)

// Tokens de ordenação aceitos pela listagem.
const (
	SortPriceAsc       = "price"
	SortPriceDesc      = "-price"
	SortDateAsc        = "date"
	SortDateDesc       = "-date"
	SortPopularityAsc  = "popularity"
	SortPopularityDesc = "-popularity"

	// SortRelevance é o token resolvido quando há busca textual sem ordenação explícita.
	SortRelevance = "relevance"
)

// SortSpec é a saída do Sort Resolver: a especificação efetiva de ordenação
// e a decisão de usar (ou não) o caminho de agregação.
type SortSpec struct {
	Token               string
	Direct              bson.D // ordenação aplicada no caminho direto (vazia quando agrega)
	RequiresAggregation bool
	PopularityDir       int // 1 asc / -1 desc; usado apenas pelo pipeline de popularidade
}

// ResolveSort decide a ordenação efetiva a partir do token e da presença de busca textual.
// Popularidade é a contagem de reviews associados, não a média de notas.
// Tokens fora da lista aceita caem no padrão (mesma postura da listagem pública:
// não vaza erro por parâmetro de ordenação desconhecido).
func ResolveSort(token string, textSearch bool) SortSpec {
	switch token {
	case SortPriceAsc:
		return SortSpec{Token: SortPriceAsc, Direct: bson.D{{Key: "price", Value: 1}}}
	case SortPriceDesc:
		return SortSpec{Token: SortPriceDesc, Direct: bson.D{{Key: "price", Value: -1}}}
	case SortDateAsc:
		return SortSpec{Token: SortDateAsc, Direct: bson.D{{Key: "createdAt", Value: 1}}}
	case SortDateDesc:
		return SortSpec{Token: SortDateDesc, Direct: bson.D{{Key: "createdAt", Value: -1}}}
	case SortPopularityAsc:
		return SortSpec{Token: SortPopularityAsc, RequiresAggregation: true, PopularityDir: 1}
	case SortPopularityDesc:
		return SortSpec{Token: SortPopularityDesc, RequiresAggregation: true, PopularityDir: -1}
	}

	if textSearch {
		// Relevância como critério primário, recência como desempate.
		return SortSpec{
			Token: SortRelevance,
			Direct: bson.D{
				{Key: "score", Value: bson.M{"$meta": "textScore"}},
				{Key: "createdAt", Value: -1},
			},
		}
	}

	// Padrão sem busca: mais novos primeiro.
	return SortSpec{Token: SortDateDesc, Direct: bson.D{{Key: "createdAt", Value: -1}}}
}
