package query

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"emarket/internal/domain"
	apperror "emarket/internal/errors"
)

// Formatos de data aceitos em dateFrom/dateTo.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// FilterResult é a saída do Filter Builder: o predicado canônico sobre a coleção
// de produtos mais os valores normalizados que serão ecoados no meta da resposta.
type FilterResult struct {
	Predicate   bson.M
	TextSearch  bool
	Keyword     string
	Categories  []string // ids em hex, deduplicados, na ordem de uso
	CategoryIDs []primitive.ObjectID
	MinPrice    *float64
	MaxPrice    *float64
}

// BuildFilter transforma os parâmetros crus da consulta no predicado de filtro.
// Não conhece ordenação nem paginação. Parâmetros ausentes significam
// "sem restrição"; apenas valores malformados geram erro de validação.
func BuildFilter(q domain.ProductQuery) (FilterResult, error) {
	// A listagem pública só enxerga produtos ativos e não deletados.
	predicate := bson.M{
		"isActive":  true,
		"deletedAt": nil,
	}

	result := FilterResult{
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
	}

	// 1. Busca textual (full-text sobre os campos indexados título/descrição)
	keyword := strings.TrimSpace(q.Keyword)
	if keyword != "" {
		predicate["$text"] = bson.M{"$search": keyword}
		result.TextSearch = true
		result.Keyword = keyword
	}

	// 2. Categorias: aceita id único, lista separada por vírgula e valores repetidos.
	// Segmentos vazios ("a,,b") são descartados; a deduplicação preserva a ordem de uso.
	categories, ids, err := normalizeCategories(q)
	if err != nil {
		return FilterResult{}, err
	}
	if len(ids) > 0 {
		predicate["categories"] = bson.M{"$in": ids}
		result.Categories = categories
		result.CategoryIDs = ids
	}

	// 3. Faixa de preço: os limites são independentes; qualquer um pode estar ausente.
	// Uma faixa impossível (min > max) é um filtro vazio válido, não um erro.
	priceCond := bson.M{}
	if q.MinPrice != nil {
		priceCond["$gte"] = *q.MinPrice
	}
	if q.MaxPrice != nil {
		priceCond["$lte"] = *q.MaxPrice
	}
	if len(priceCond) > 0 {
		predicate["price"] = priceCond
	}

	// 4. Faixa de datas sobre createdAt. Datas inválidas DEVEM falhar a requisição
	// com erro de validação, nunca casar silenciosamente com tudo.
	createdCond := bson.M{}
	if q.DateFrom != "" {
		from, err := parseDate(q.DateFrom)
		if err != nil {
			return FilterResult{}, apperror.NewValidationError(fmt.Sprintf("A data informada em dateFrom ('%s') é inválida.", q.DateFrom))
		}
		createdCond["$gte"] = from
	}
	if q.DateTo != "" {
		to, err := parseDate(q.DateTo)
		if err != nil {
			return FilterResult{}, apperror.NewValidationError(fmt.Sprintf("A data informada em dateTo ('%s') é inválida.", q.DateTo))
		}
		createdCond["$lte"] = to
	}
	if len(createdCond) > 0 {
		predicate["createdAt"] = createdCond
	}

	result.Predicate = predicate
	return result, nil
}

// normalizeCategories junta ?category= e ?categories= (repetidos ou "a,b,c") em
// um conjunto deduplicado de ObjectIDs, preservando a ordem de uso.
func normalizeCategories(q domain.ProductQuery) ([]string, []primitive.ObjectID, error) {
	raw := make([]string, 0, len(q.Categories)+1)
	if q.Category != "" {
		raw = append(raw, q.Category)
	}
	raw = append(raw, q.Categories...)

	seen := make(map[string]struct{})
	var hexIDs []string
	var ids []primitive.ObjectID

	for _, value := range raw {
		for _, token := range strings.Split(value, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue // segmento vazio é descartado
			}
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}

			id, err := primitive.ObjectIDFromHex(token)
			if err != nil {
				// Descartar em silêncio faria "a,b" se comportar como ausência de filtro.
				return nil, nil, apperror.NewValidationError(fmt.Sprintf("O id de categoria '%s' é inválido.", token))
			}
			hexIDs = append(hexIDs, token)
			ids = append(ids, id)
		}
	}

	return hexIDs, ids, nil
}

// parseDate tenta os formatos aceitos em ordem.
func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("formato de data não reconhecido: %s", value)
}
