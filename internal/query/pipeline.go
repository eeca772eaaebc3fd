package query

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Nome da coleção de engajamento usada no $lookup.
const reviewsCollection = "reviews"

// BuildPipeline monta os estágios da agregação de popularidade.
// A ordem dos estágios afeta a correção, não apenas a performance:
// o $match precisa vir antes do $lookup, e o $facet pagina e conta
// sobre o MESMO conjunto de resultados, mantendo data e total consistentes
// para uma única execução.
func BuildPipeline(p Plan) mongo.Pipeline {
	// 1. Mesmo predicado de filtro do caminho direto ($text incluso, se ativo).
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: p.Filter}},
	}

	// 2. Relevância textual anexada por registro, quando há busca.
	if p.TextSearch {
		pipeline = append(pipeline, bson.D{{Key: "$addFields", Value: bson.M{
			"score": bson.M{"$meta": "textScore"},
		}}})
	}

	// 3. Left-join com os registros de engajamento do produto.
	pipeline = append(pipeline, bson.D{{Key: "$lookup", Value: bson.M{
		"from":         reviewsCollection,
		"localField":   "_id",
		"foreignField": "productId",
		"as":           "engagement",
	}}})

	// 4. Campos derivados: reviewCount e avgRating (null quando não há reviews;
	// o $cond evita divisão por zero no $avg de lista vazia).
	pipeline = append(pipeline, bson.D{{Key: "$addFields", Value: bson.M{
		"reviewCount": bson.M{"$size": "$engagement"},
		"avgRating": bson.M{"$cond": bson.A{
			bson.M{"$gt": bson.A{bson.M{"$size": "$engagement"}, 0}},
			bson.M{"$avg": "$engagement.rating"},
			nil,
		}},
	}}})

	// 5. A lista crua do join não sai na projeção; o cliente vê só os derivados.
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: bson.M{
		"engagement": 0,
	}}})

	// 6. Ordenação determinística: reviewCount na direção pedida,
	// desempate por relevância (se busca ativa) e depois por recência.
	sortDoc := bson.D{{Key: "reviewCount", Value: p.PopularityDir}}
	if p.TextSearch {
		sortDoc = append(sortDoc, bson.E{Key: "score", Value: -1})
	}
	sortDoc = append(sortDoc, bson.E{Key: "createdAt", Value: -1})
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sortDoc}})

	// 7. Uma passada, dois ramos: página de dados e contagem total (independente
	// de skip/limit) sobre o mesmo conjunto upstream.
	pipeline = append(pipeline, bson.D{{Key: "$facet", Value: bson.M{
		"data": bson.A{
			bson.M{"$skip": p.Skip},
			bson.M{"$limit": p.Limit},
		},
		"total": bson.A{
			bson.M{"$count": "count"},
		},
	}}})

	return pipeline
}
