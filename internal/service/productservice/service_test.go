package productservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"emarket/internal/domain"
	apperror "emarket/internal/errors"
	"emarket/internal/pkg/logger"
	"emarket/internal/query"
	"emarket/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) ExecutePlan(ctx context.Context, plan query.Plan) ([]domain.Product, int64, error) {
	args := m.Called(ctx, plan)
	return args.Get(0).([]domain.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) Replace(ctx context.Context, product domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) SoftDelete(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockProductRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool, at time.Time) error {
	args := m.Called(ctx, id, active, at)
	return args.Error(0)
}

func (m *MockProductRepository) ExistsByTitle(ctx context.Context, title string, excludeID *primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, title, excludeID)
	return args.Bool(0), args.Error(1)
}

// MockCategoryRepository é o mock da validação de referências de categoria.
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) CountByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

// MockNotifier registra as notificações de criação de produto.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) ProductCreated(ctx context.Context, product domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func newTestService() (*productservice.Service, *MockProductRepository, *MockCategoryRepository, *MockNotifier) {
	mockRepo := new(MockProductRepository)
	mockCategories := new(MockCategoryRepository)
	mockNotifier := new(MockNotifier)
	mockLogger := logger.NewLogger("debug")

	svc := productservice.NewService(mockRepo, mockCategories, mockNotifier, mockLogger)
	return svc, mockRepo, mockCategories, mockNotifier
}

const (
	sellerHex = "64b000000000000000000001"
	catHexA   = "64a000000000000000000001"
	catHexB   = "64a000000000000000000002"
)

// --- ListProducts ---

// TestListProducts_Defaults testa a consulta sem parâmetros: página 1, limite 12
// e ordenação resolvida "-date" no meta.
func TestListProducts_Defaults(t *testing.T) {
	svc, mockRepo, _, _ := newTestService()

	expected := []domain.Product{
		{ID: primitive.NewObjectID(), Title: "Produto A"},
		{ID: primitive.NewObjectID(), Title: "Produto B"},
	}

	mockRepo.On("ExecutePlan", mock.Anything, mock.MatchedBy(func(p query.Plan) bool {
		return p.Skip == 0 && p.Limit == 12 && p.SortToken == "-date" && !p.RequiresAggregation
	})).Return(expected, int64(2), nil)

	page, err := svc.ListProducts(context.Background(), domain.ProductQuery{})

	assert.NoError(t, err)
	assert.Equal(t, expected, page.Data)
	assert.Equal(t, 1, page.Meta.Page)
	assert.Equal(t, 12, page.Meta.Limit)
	assert.Equal(t, int64(2), page.Meta.Total)
	assert.Equal(t, int64(1), page.Meta.TotalPages)
	assert.Equal(t, "-date", page.Meta.Sort)
	assert.Nil(t, page.Meta.Filters.Keyword)
	mockRepo.AssertExpectations(t)
}

// TestListProducts_PageClamp testa que page=0 (e negativo) vira página 1, sem erro.
func TestListProducts_PageClamp(t *testing.T) {
	svc, mockRepo, _, _ := newTestService()

	mockRepo.On("ExecutePlan", mock.Anything, mock.MatchedBy(func(p query.Plan) bool {
		return p.Skip == 0 && p.Limit == 12
	})).Return([]domain.Product{}, int64(0), nil).Twice()

	page, err := svc.ListProducts(context.Background(), domain.ProductQuery{Page: 0})
	assert.NoError(t, err)
	assert.Equal(t, 1, page.Meta.Page)

	page, err = svc.ListProducts(context.Background(), domain.ProductQuery{Page: -5})
	assert.NoError(t, err)
	assert.Equal(t, 1, page.Meta.Page)
	mockRepo.AssertExpectations(t)
}

// TestListProducts_LimitSafeguard testa o teto de 100 itens por página.
func TestListProducts_LimitSafeguard(t *testing.T) {
	svc, mockRepo, _, _ := newTestService()

	mockRepo.On("ExecutePlan", mock.Anything, mock.MatchedBy(func(p query.Plan) bool {
		return p.Limit == 100
	})).Return([]domain.Product{}, int64(0), nil)

	page, err := svc.ListProducts(context.Background(), domain.ProductQuery{Limit: 500})

	assert.NoError(t, err)
	assert.Equal(t, 100, page.Meta.Limit)
	mockRepo.AssertExpectations(t)
}

// TestListProducts_EmptyResult testa o formato com zero resultados:
// data vazio, total 0 e totalPages 1 (nunca 0).
func TestListProducts_EmptyResult(t *testing.T) {
	svc, mockRepo, _, _ := newTestService()

	mockRepo.On("ExecutePlan", mock.Anything, mock.Anything).Return([]domain.Product{}, int64(0), nil)

	page, err := svc.ListProducts(context.Background(), domain.ProductQuery{})

	assert.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Len(t, page.Data, 0)
	assert.Equal(t, int64(0), page.Meta.Total)
	assert.Equal(t, int64(1), page.Meta.TotalPages)
	mockRepo.AssertExpectations(t)
}

// TestListProducts_TotalPagesCeiling testa o arredondamento para cima de totalPages.
func TestListProducts_TotalPagesCeiling(t *testing.T) {
	svc, mockRepo, _, _ := newTestService()

	// 25 itens / limite 12 => 3 páginas
	mockRepo.On("ExecutePlan", mock.Anything, mock.Anything).Return([]domain.Product{}, int64(25), nil)

	page, err := svc.ListProducts(context.Background(), domain.ProductQuery{})

	assert.NoError(t, err)
	assert.Equal(t, int64(3), page.Meta.TotalPages)
	mockRepo.AssertExpectations(t)
}

// TestListProducts_EchoesResolvedFilters testa o eco dos filtros normalizados no meta.
func TestListProducts_EchoesResolvedFilters(t *testing.T) {
	svc, mockRepo, _, _ := newTestService()

	min := 10.0
	mockRepo.On("ExecutePlan", mock.Anything, mock.Anything).Return([]domain.Product{}, int64(0), nil)

	page, err := svc.ListProducts(context.Background(), domain.ProductQuery{
		Keyword:  "cadeira",
		Category: catHexA,
		MinPrice: &min,
	})

	assert.NoError(t, err)
	assert.Equal(t, "relevance", page.Meta.Sort)
	assert.NotNil(t, page.Meta.Filters.Keyword)
	assert.Equal(t, "cadeira", *page.Meta.Filters.Keyword)
	assert.Equal(t, []string{catHexA}, page.Meta.Filters.Categories)
	assert.Equal(t, &min, page.Meta.Filters.MinPrice)
	assert.Nil(t, page.Meta.Filters.MaxPrice)
	mockRepo.AssertExpectations(t)
}

// TestListProducts_ValidationBeforeStore testa que consultas inválidas nunca
// chegam ao repositório.
func TestListProducts_ValidationBeforeStore(t *testing.T) {
	svc, mockRepo, _, _ := newTestService()

	_, err := svc.ListProducts(context.Background(), domain.ProductQuery{DateFrom: "data-ruim"})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "ExecutePlan", mock.Anything, mock.Anything)
}

// TestListProducts_RepoErrorPropagates testa que falhas do store sobem para o
// chamador (o handler as traduz em 500).
func TestListProducts_RepoErrorPropagates(t *testing.T) {
	svc, mockRepo, _, _ := newTestService()

	repoError := apperror.NewDBError("Falha ao listar produtos", assert.AnError)
	mockRepo.On("ExecutePlan", mock.Anything, mock.Anything).Return([]domain.Product{}, int64(0), repoError)

	_, err := svc.ListProducts(context.Background(), domain.ProductQuery{})

	assert.Error(t, err)
	assert.IsType(t, &apperror.InternalError{}, err)
	mockRepo.AssertExpectations(t)
}

// --- CreateProduct ---

func validInput() domain.ProductInput {
	return domain.ProductInput{
		Title:       "Cadeira Gamer",
		Description: "Cadeira ergonômica com apoio lombar.",
		Price:       899.90,
		Stock:       5,
		Categories:  []string{catHexA, catHexB},
	}
}

// TestCreateProduct_Success testa o fluxo completo de criação com notificação.
func TestCreateProduct_Success(t *testing.T) {
	svc, mockRepo, mockCategories, mockNotifier := newTestService()

	mockCategories.On("CountByIDs", mock.Anything, mock.Anything).Return(int64(2), nil)
	mockRepo.On("ExistsByTitle", mock.Anything, "Cadeira Gamer", (*primitive.ObjectID)(nil)).Return(false, nil)

	created := domain.Product{ID: primitive.NewObjectID(), Title: "Cadeira Gamer"}
	mockRepo.On("Insert", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
		return p.Title == "Cadeira Gamer" && p.IsActive && len(p.Categories) == 2
	})).Return(created, nil)
	mockNotifier.On("ProductCreated", mock.Anything, created).Return(nil)

	product, err := svc.CreateProduct(context.Background(), validInput(), sellerHex)

	assert.NoError(t, err)
	assert.Equal(t, created, product)
	mockRepo.AssertExpectations(t)
	mockCategories.AssertExpectations(t)
	mockNotifier.AssertExpectations(t)
}

// TestCreateProduct_Fail_Validation testa as validações de payload.
func TestCreateProduct_Fail_Validation(t *testing.T) {
	svc, mockRepo, _, _ := newTestService()

	cases := []struct {
		name   string
		mutate func(*domain.ProductInput)
	}{
		{"titulo vazio", func(i *domain.ProductInput) { i.Title = "  " }},
		{"descricao vazia", func(i *domain.ProductInput) { i.Description = "" }},
		{"preco negativo", func(i *domain.ProductInput) { i.Price = -1 }},
		{"estoque negativo", func(i *domain.ProductInput) { i.Stock = -1 }},
		{"sem categorias", func(i *domain.ProductInput) { i.Categories = nil }},
		{"categoria invalida", func(i *domain.ProductInput) { i.Categories = []string{"abc"} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)

			_, err := svc.CreateProduct(context.Background(), input, sellerHex)

			assert.Error(t, err)
			assert.IsType(t, &apperror.ValidationError{}, err)
		})
	}

	// Nenhuma validação falha deve tocar o repositório
	mockRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

// TestCreateProduct_Fail_UnknownCategory testa o conflito quando alguma
// categoria referenciada não existe.
func TestCreateProduct_Fail_UnknownCategory(t *testing.T) {
	svc, mockRepo, mockCategories, _ := newTestService()

	// Só 1 das 2 categorias existe
	mockCategories.On("CountByIDs", mock.Anything, mock.Anything).Return(int64(1), nil)

	_, err := svc.CreateProduct(context.Background(), validInput(), sellerHex)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	mockCategories.AssertExpectations(t)
}

// TestCreateProduct_Fail_DuplicateTitle testa a unicidade de título entre
// produtos não deletados.
func TestCreateProduct_Fail_DuplicateTitle(t *testing.T) {
	svc, mockRepo, mockCategories, _ := newTestService()

	mockCategories.On("CountByIDs", mock.Anything, mock.Anything).Return(int64(2), nil)
	mockRepo.On("ExistsByTitle", mock.Anything, "Cadeira Gamer", (*primitive.ObjectID)(nil)).Return(true, nil)

	_, err := svc.CreateProduct(context.Background(), validInput(), sellerHex)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

// TestCreateProduct_NotifierFailureDoesNotUndo testa que a falha do notificador
// não desfaz a criação já persistida.
func TestCreateProduct_NotifierFailureDoesNotUndo(t *testing.T) {
	svc, mockRepo, mockCategories, mockNotifier := newTestService()

	mockCategories.On("CountByIDs", mock.Anything, mock.Anything).Return(int64(2), nil)
	mockRepo.On("ExistsByTitle", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	created := domain.Product{ID: primitive.NewObjectID(), Title: "Cadeira Gamer"}
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(created, nil)
	mockNotifier.On("ProductCreated", mock.Anything, created).Return(assert.AnError)

	product, err := svc.CreateProduct(context.Background(), validInput(), sellerHex)

	assert.NoError(t, err)
	assert.Equal(t, created, product)
	mockNotifier.AssertExpectations(t)
}

// --- GetProductByID / UpdateProduct / DeleteProduct / SetProductActive ---

// TestGetProductByID_InvalidID testa a rejeição de ids malformados.
func TestGetProductByID_InvalidID(t *testing.T) {
	svc, mockRepo, _, _ := newTestService()

	_, err := svc.GetProductByID(context.Background(), "nao-e-objectid")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

// TestGetProductByID_NotFound testa a propagação do 404 do repositório.
func TestGetProductByID_NotFound(t *testing.T) {
	svc, mockRepo, _, _ := newTestService()

	oid := primitive.NewObjectID()
	mockRepo.On("FindByID", mock.Anything, oid).Return(domain.Product{}, apperror.NewNotFoundError("Produto não encontrado."))

	_, err := svc.GetProductByID(context.Background(), oid.Hex())

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
	mockRepo.AssertExpectations(t)
}

// TestUpdateProduct_Partial testa a atualização parcial: apenas os campos
// presentes mudam, e UpdatedAt avança.
func TestUpdateProduct_Partial(t *testing.T) {
	svc, mockRepo, _, _ := newTestService()

	oid := primitive.NewObjectID()
	existing := domain.Product{
		ID:          oid,
		Title:       "Cadeira Gamer",
		Description: "Original",
		Price:       899.90,
		Stock:       5,
		UpdatedAt:   time.Now().UTC().Add(-time.Hour),
	}
	mockRepo.On("FindByID", mock.Anything, oid).Return(existing, nil)

	newPrice := 749.90
	mockRepo.On("Replace", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
		return p.Price == newPrice && p.Title == "Cadeira Gamer" && p.UpdatedAt.After(existing.UpdatedAt)
	})).Return(nil)

	product, err := svc.UpdateProduct(context.Background(), oid.Hex(), domain.ProductUpdate{Price: &newPrice})

	assert.NoError(t, err)
	assert.Equal(t, newPrice, product.Price)
	assert.Equal(t, "Cadeira Gamer", product.Title)
	mockRepo.AssertExpectations(t)
}

// TestUpdateProduct_Fail_DuplicateTitle testa a revalidação de unicidade quando
// o título muda.
func TestUpdateProduct_Fail_DuplicateTitle(t *testing.T) {
	svc, mockRepo, _, _ := newTestService()

	oid := primitive.NewObjectID()
	mockRepo.On("FindByID", mock.Anything, oid).Return(domain.Product{ID: oid, Title: "Antigo"}, nil)

	newTitle := "Título Tomado"
	mockRepo.On("ExistsByTitle", mock.Anything, newTitle, &oid).Return(true, nil)

	_, err := svc.UpdateProduct(context.Background(), oid.Hex(), domain.ProductUpdate{Title: &newTitle})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything)
}

// TestDeleteProduct_Soft testa que a deleção é lógica (repassa o instante ao repo).
func TestDeleteProduct_Soft(t *testing.T) {
	svc, mockRepo, _, _ := newTestService()

	oid := primitive.NewObjectID()
	mockRepo.On("SoftDelete", mock.Anything, oid, mock.AnythingOfType("time.Time")).Return(nil)

	err := svc.DeleteProduct(context.Background(), oid.Hex())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestSetProductActive testa a ativação seguida da releitura fresca.
func TestSetProductActive(t *testing.T) {
	svc, mockRepo, _, _ := newTestService()

	oid := primitive.NewObjectID()
	fresh := domain.Product{ID: oid, Title: "Produto", IsActive: true}

	mockRepo.On("SetActive", mock.Anything, oid, true, mock.AnythingOfType("time.Time")).Return(nil)
	mockRepo.On("FindByID", mock.Anything, oid).Return(fresh, nil)

	product, err := svc.SetProductActive(context.Background(), oid.Hex(), true)

	assert.NoError(t, err)
	assert.True(t, product.IsActive)
	mockRepo.AssertExpectations(t)
}
