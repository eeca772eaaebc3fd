package productrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"emarket/internal/domain"
	"emarket/internal/errors"
	"emarket/internal/pkg/cache"
	"emarket/internal/pkg/logger"
	"emarket/internal/query"
)

// Define a chave de cache para produtos.
const productCacheKey = "product:%s"

// ProductRepository implementa o acesso à coleção de produtos no MongoDB.
// Ela contém as conexões necessárias para acessar dados (Mongo e Redis).
type ProductRepository struct {
	Products  *mongo.Collection
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	Logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *mongo.Database, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, log logger.Logger) *ProductRepository {
	return &ProductRepository{
		Products:  db.Collection("products"),
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		Logger:    log,
	}
}

// --- Execução do plano de listagem (os dois caminhos) ---

// ExecutePlan roda o plano montado pelo Plan Selector: caminho direto
// (find + count em paralelo) ou pipeline de agregação, conforme o plano.
// Ambos devolvem o mesmo par (dados, total).
func (r *ProductRepository) ExecutePlan(ctx context.Context, plan query.Plan) ([]domain.Product, int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if plan.RequiresAggregation {
		return r.runAggregation(ctxTimeout, plan)
	}
	return r.runDirect(ctxTimeout, plan)
}

// runDirect busca a página ordenada e a contagem total em paralelo.
// As duas operações compartilham o filtro, mas não uma transação: um pequeno
// read-skew entre elas sob escrita concorrente é tolerado.
func (r *ProductRepository) runDirect(ctx context.Context, plan query.Plan) ([]domain.Product, int64, error) {
	products := []domain.Product{}
	var total int64

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		opts := options.Find().
			SetSort(plan.Sort).
			SetSkip(plan.Skip).
			SetLimit(plan.Limit)
		if plan.TextSearch {
			// Anexa o score de relevância a cada registro retornado;
			// os demais campos do documento seguem inalterados.
			opts.SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}})
		}

		cursor, err := r.Products.Find(gctx, plan.Filter, opts)
		if err != nil {
			return err
		}
		return cursor.All(gctx, &products)
	})

	g.Go(func() error {
		n, err := r.Products.CountDocuments(gctx, plan.Filter)
		if err != nil {
			return err
		}
		total = n
		return nil
	})

	// Qualquer falha (inclusive timeout do store) aborta a requisição inteira:
	// nunca devolvemos uma página com total desconhecido.
	if err := g.Wait(); err != nil {
		return nil, 0, errors.NewDBError("Falha ao executar a listagem direta", err)
	}

	if products == nil {
		products = []domain.Product{}
	}
	return products, total, nil
}

// facetRow é o formato de saída do $facet: um ramo de dados paginado
// e um ramo de contagem sobre o mesmo conjunto upstream.
type facetRow struct {
	Data  []domain.Product `bson:"data"`
	Total []struct {
		Count int64 `bson:"count"`
	} `bson:"total"`
}

// runAggregation submete o pipeline de popularidade como uma única operação.
// Se a fonte do join estiver indisponível, a agregação inteira falha a
// requisição; dados parciais de popularidade nunca são devolvidos.
func (r *ProductRepository) runAggregation(ctx context.Context, plan query.Plan) ([]domain.Product, int64, error) {
	cursor, err := r.Products.Aggregate(ctx, query.BuildPipeline(plan))
	if err != nil {
		return nil, 0, errors.NewDBError("Falha ao executar o pipeline de popularidade", err)
	}

	var rows []facetRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, 0, errors.NewDBError("Falha ao decodificar o resultado do pipeline", err)
	}

	if len(rows) == 0 {
		return []domain.Product{}, 0, nil
	}

	data := rows[0].Data
	if data == nil {
		data = []domain.Product{}
	}

	var total int64
	if len(rows[0].Total) > 0 {
		total = rows[0].Total[0].Count
	}

	return data, total, nil
}

// --- CRUD ---

// Insert persiste um novo Produto. O índice único parcial de título transforma
// uma corrida de criação duplicada em ConflictError.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.Products.InsertOne(ctxTimeout, product)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Product{}, errors.NewConflictError(fmt.Sprintf("Já existe um produto com o título '%s'.", product.Title))
		}
		return domain.Product{}, errors.NewDBError("Falha ao inserir produto", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		product.ID = oid
	}
	return product, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id.Hex())
	var product domain.Product

	// 1. Tentar obter do Cache (Redis)
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		// Cache HIT
		if json.Unmarshal([]byte(cachedData), &product) == nil {
			return product, nil
		}
		// Se a desserialização falhar, continua para o DB
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (ex: conexão perdida): loga e segue para o DB.
		r.Logger.Warn("Falha ao ler produto do cache Redis.", map[string]interface{}{"key": key, "error": err.Error()})
	}

	// 2. Busca no Banco de Dados (MongoDB)
	err = r.Products.FindOne(ctxTimeout, bson.M{"_id": id}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		// O Serviço receberá isso e o Handler o mapeará para 404.
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id.Hex()))
	}
	if err != nil {
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto no DB", err)
	}

	// 3. Estratégia Cache-Aside (WRITE): popula o cache para futuras requisições.
	if productJSON, marshalErr := json.Marshal(product); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, productJSON, r.CacheTTL)
	}

	return product, nil
}

// Replace substitui o documento inteiro do produto e invalida o cache.
func (r *ProductRepository) Replace(ctx context.Context, product domain.Product) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.Products.ReplaceOne(ctxTimeout, bson.M{"_id": product.ID}, product)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.NewConflictError(fmt.Sprintf("Já existe um produto com o título '%s'.", product.Title))
		}
		return errors.NewDBError("Falha ao atualizar produto", err)
	}
	if result.MatchedCount == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", product.ID.Hex()))
	}

	r.bustCache(ctxTimeout, product.ID)
	return nil
}

// SoftDelete marca o produto como deletado (deletedAt) e o desativa.
// A listagem pública já exclui registros com deletedAt preenchido.
func (r *ProductRepository) SoftDelete(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"deletedAt": at,
		"isActive":  false,
		"updatedAt": at,
	}}

	result, err := r.Products.UpdateOne(ctxTimeout, bson.M{"_id": id, "deletedAt": nil}, update)
	if err != nil {
		return errors.NewDBError("Falha ao deletar produto", err)
	}
	if result.MatchedCount == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id.Hex()))
	}

	r.bustCache(ctxTimeout, id)
	return nil
}

// SetActive liga/desliga a flag isActive do produto.
func (r *ProductRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool, at time.Time) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"isActive":  active,
		"updatedAt": at,
	}}

	result, err := r.Products.UpdateOne(ctxTimeout, bson.M{"_id": id, "deletedAt": nil}, update)
	if err != nil {
		return errors.NewDBError("Falha ao alterar status do produto", err)
	}
	if result.MatchedCount == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id.Hex()))
	}

	r.bustCache(ctxTimeout, id)
	return nil
}

// ExistsByTitle verifica duplicidade de título entre produtos não deletados.
// excludeID permite ignorar o próprio documento em atualizações.
func (r *ProductRepository) ExistsByTitle(ctx context.Context, title string, excludeID *primitive.ObjectID) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	filter := bson.M{"title": title, "deletedAt": nil}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}

	count, err := r.Products.CountDocuments(ctxTimeout, filter)
	if err != nil {
		return false, errors.NewDBError("Falha ao verificar duplicidade de título", err)
	}
	return count > 0, nil
}

// bustCache invalida a entrada de cache do produto após uma mutação.
func (r *ProductRepository) bustCache(ctx context.Context, id primitive.ObjectID) {
	key := fmt.Sprintf(productCacheKey, id.Hex())
	if err := r.Cache.Delete(ctx, key); err != nil {
		r.Logger.Warn("Falha ao invalidar cache do produto.", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
