package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solrisk-service/solrisk_service/internal/domain/entities"
	"github.com/solrisk-service/solrisk_service/internal/infrastructure/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// Mock implementations for testing
type MockHolderProvider struct {
	mock.Mock
}

func (m *MockHolderProvider) TokenHolders(ctx context.Context, tokenAddress string, topN int) (*entities.TokenHolders, error) {
	args := m.Called(ctx, tokenAddress, topN)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TokenHolders), args.Error(1)
}

type MockMarketProvider struct {
	mock.Mock
}

func (m *MockMarketProvider) TokenMarket(ctx context.Context, tokenAddress string) (*entities.MarketSnapshot, error) {
	args := m.Called(ctx, tokenAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MarketSnapshot), args.Error(1)
}

func (m *MockMarketProvider) Search(ctx context.Context, query string) ([]entities.MarketSnapshot, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.MarketSnapshot), args.Error(1)
}

type MockTokenReportRepository struct {
	mock.Mock
}

func (m *MockTokenReportRepository) Create(ctx context.Context, report *entities.TokenReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockTokenReportRepository) AttachNarrative(ctx context.Context, id uuid.UUID, narrative string) error {
	args := m.Called(ctx, id, narrative)
	return args.Error(0)
}

func (m *MockTokenReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.TokenReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TokenReport), args.Error(1)
}

type MockWalletReportRepository struct {
	mock.Mock
}

func (m *MockWalletReportRepository) Create(ctx context.Context, report *entities.WalletReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockWalletReportRepository) AttachNarrative(ctx context.Context, id uuid.UUID, narrative string) error {
	args := m.Called(ctx, id, narrative)
	return args.Error(0)
}

func (m *MockWalletReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.WalletReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WalletReport), args.Error(1)
}

type MockPortfolioProvider struct {
	mock.Mock
}

func (m *MockPortfolioProvider) Portfolio(ctx context.Context, walletAddress string) (*entities.Portfolio, error) {
	args := m.Called(ctx, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Portfolio), args.Error(1)
}

type MockAIProvider struct {
	mock.Mock
}

func (m *MockAIProvider) Complete(ctx context.Context, req *ai.CompletionRequest) (*ai.CompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ai.CompletionResponse), args.Error(1)
}

func (m *MockAIProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockAIProvider) IsAvailable(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

const testTokenAddress = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
const testWalletAddress = "DYw8jCTfwHNRJhhmFcbXvVDTqWMEVFBX6ZKUmG5CNSKK"

func holding(pct float64, accountType string) entities.Holding {
	return entities.Holding{
		TokenAccount: uuid.NewString(),
		Owner:        uuid.NewString(),
		Balance:      decimal.NewFromInt(1000),
		Percentage:   pct,
		AccountType:  accountType,
	}
}

func concentratedHolders() *entities.TokenHolders {
	return &entities.TokenHolders{
		TokenAddress: testTokenAddress,
		TokenName:    "Test Token",
		TokenSymbol:  "TEST",
		Holders: []entities.Holding{
			holding(40, "wallet"),
			holding(25, "wallet"),
			holding(10, "wallet"),
		},
	}
}

func newTestNarrator(provider ai.Provider) *Narrator {
	return NewNarrator(provider, zap.NewNop())
}

func TestTokenService_Analyze_Success(t *testing.T) {
	holders := new(MockHolderProvider)
	market := new(MockMarketProvider)
	reports := new(MockTokenReportRepository)
	aiProvider := new(MockAIProvider)

	holders.On("TokenHolders", mock.Anything, testTokenAddress, 10).Return(concentratedHolders(), nil)
	market.On("TokenMarket", mock.Anything, testTokenAddress).Return(&entities.MarketSnapshot{
		Liquidity: 500000,
		MarketCap: 5000000,
		DexID:     "raydium",
	}, nil)

	var createdReport *entities.TokenReport
	reports.On("Create", mock.Anything, mock.AnythingOfType("*entities.TokenReport")).
		Run(func(args mock.Arguments) {
			createdReport = args.Get(1).(*entities.TokenReport)
		}).
		Return(nil)

	attached := make(chan string, 1)
	aiProvider.On("Complete", mock.Anything, mock.AnythingOfType("*ai.CompletionRequest")).
		Return(&ai.CompletionResponse{Content: "Holdings are heavily concentrated."}, nil)
	reports.On("AttachNarrative", mock.Anything, mock.AnythingOfType("uuid.UUID"), "Holdings are heavily concentrated.").
		Run(func(args mock.Arguments) {
			attached <- args.Get(2).(string)
		}).
		Return(nil)

	svc := NewTokenService(holders, market, reports, newTestNarrator(aiProvider), nil, zap.NewNop())

	result, err := svc.Analyze(context.Background(), testTokenAddress, 0)

	assert.NoError(t, err)
	assert.Equal(t, testTokenAddress, result.TokenAddress)
	assert.NotEqual(t, uuid.Nil, result.ReportID)
	assert.Equal(t, 75.0, result.Concentration.Top3)
	assert.Equal(t, 75.0, result.Concentration.Top10)

	// top-3 at 75% drives the concentration rule and the top-10 override
	assert.Equal(t, entities.RiskHigh, result.RiskLevel)

	assert.NotNil(t, createdReport)
	assert.Equal(t, "Test Token", createdReport.TokenName)
	assert.Len(t, createdReport.TopHolders, 10)
	assert.Equal(t, "N/A", createdReport.TopHolders[9].Owner)

	select {
	case narrative := <-attached:
		assert.Equal(t, "Holdings are heavily concentrated.", narrative)
	case <-time.After(2 * time.Second):
		t.Fatal("narrative was never attached")
	}
	reports.AssertExpectations(t)
}

func TestTokenService_Analyze_ProviderFailuresDegrade(t *testing.T) {
	holders := new(MockHolderProvider)
	market := new(MockMarketProvider)
	reports := new(MockTokenReportRepository)
	aiProvider := new(MockAIProvider)

	holders.On("TokenHolders", mock.Anything, testTokenAddress, 10).Return(nil, errors.New("rpc timeout"))
	market.On("TokenMarket", mock.Anything, testTokenAddress).Return(nil, errors.New("upstream 503"))
	reports.On("Create", mock.Anything, mock.AnythingOfType("*entities.TokenReport")).Return(nil)
	aiProvider.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("unavailable"))

	svc := NewTokenService(holders, market, reports, newTestNarrator(aiProvider), nil, zap.NewNop())

	result, err := svc.Analyze(context.Background(), testTokenAddress, 0)

	assert.NoError(t, err)
	assert.Equal(t, entities.RiskUnknown, result.RiskLevel)
	assert.Equal(t, 0, result.RiskScore)
}

func TestTokenService_Analyze_PersistFailureAborts(t *testing.T) {
	holders := new(MockHolderProvider)
	market := new(MockMarketProvider)
	reports := new(MockTokenReportRepository)
	aiProvider := new(MockAIProvider)

	holders.On("TokenHolders", mock.Anything, testTokenAddress, 10).Return(concentratedHolders(), nil)
	market.On("TokenMarket", mock.Anything, testTokenAddress).Return(nil, errors.New("upstream 503"))
	reports.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	svc := NewTokenService(holders, market, reports, newTestNarrator(aiProvider), nil, zap.NewNop())

	result, err := svc.Analyze(context.Background(), testTokenAddress, 0)

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "failed to persist token report")
	reports.AssertNotCalled(t, "AttachNarrative", mock.Anything, mock.Anything, mock.Anything)
}

func TestTokenService_Analyze_EmptyAddress(t *testing.T) {
	svc := NewTokenService(nil, nil, nil, nil, nil, zap.NewNop())

	result, err := svc.Analyze(context.Background(), "", 10)

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestTokenService_QuickLookup_FallbackNarrative(t *testing.T) {
	holders := new(MockHolderProvider)
	market := new(MockMarketProvider)
	reports := new(MockTokenReportRepository)
	aiProvider := new(MockAIProvider)

	holders.On("TokenHolders", mock.Anything, testTokenAddress, 10).Return(concentratedHolders(), nil)
	market.On("TokenMarket", mock.Anything, testTokenAddress).Return(nil, errors.New("upstream 503"))
	aiProvider.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("rate limited"))

	svc := NewTokenService(holders, market, reports, newTestNarrator(aiProvider), nil, zap.NewNop())

	result, err := svc.QuickLookup(context.Background(), testTokenAddress, 10)

	assert.NoError(t, err)
	assert.Contains(t, result.Narrative, "Risk analysis completed with")
	assert.Len(t, result.TopHolders, 3)

	// lookups never persist
	reports.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTokenService_QuickLookup_NoConcentrationOverride(t *testing.T) {
	holders := new(MockHolderProvider)
	market := new(MockMarketProvider)
	aiProvider := new(MockAIProvider)

	// top-10 at 85% would escalate a persisted report to CRITICAL; the
	// quick path reports the raw score instead
	data := &entities.TokenHolders{
		TokenAddress: testTokenAddress,
		Holders: []entities.Holding{
			holding(30, "wallet"),
			holding(30, "wallet"),
			holding(25, "wallet"),
		},
	}
	holders.On("TokenHolders", mock.Anything, testTokenAddress, 10).Return(data, nil)
	market.On("TokenMarket", mock.Anything, testTokenAddress).Return(nil, errors.New("upstream 503"))
	aiProvider.On("Complete", mock.Anything, mock.Anything).
		Return(&ai.CompletionResponse{Content: "ok"}, nil)

	svc := NewTokenService(holders, market, nil, newTestNarrator(aiProvider), nil, zap.NewNop())

	result, err := svc.QuickLookup(context.Background(), testTokenAddress, 10)

	assert.NoError(t, err)
	// 50 baseline + 25 concentration = 75, HIGH but not CRITICAL
	assert.Equal(t, 75, result.RiskScore)
	assert.Equal(t, entities.RiskHigh, result.RiskLevel)
}

func TestTokenService_Search(t *testing.T) {
	market := new(MockMarketProvider)
	market.On("Search", mock.Anything, "BONK").Return([]entities.MarketSnapshot{
		{Symbol: "BONK", DexID: "raydium", VolatilityRisk: 42},
	}, nil)

	svc := NewTokenService(nil, market, nil, nil, nil, zap.NewNop())

	results, err := svc.Search(context.Background(), "BONK")

	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "BONK", results[0].Symbol)

	_, err = svc.Search(context.Background(), "")
	assert.Error(t, err)
}

func diversifiedPortfolio() *entities.Portfolio {
	tokens := make([]entities.TokenBalance, 0, 12)
	for i := 0; i < 12; i++ {
		tokens = append(tokens, entities.TokenBalance{
			Mint:     uuid.NewString(),
			Symbol:   "TKN",
			Amount:   decimal.NewFromInt(100),
			ValueUSD: 1000,
		})
	}
	return &entities.Portfolio{
		Address:       testWalletAddress,
		Tokens:        tokens,
		TotalValueUSD: 12000,
		TokenCount:    12,
	}
}

func TestWalletService_Analyze_Success(t *testing.T) {
	portfolios := new(MockPortfolioProvider)
	reports := new(MockWalletReportRepository)
	aiProvider := new(MockAIProvider)

	portfolios.On("Portfolio", mock.Anything, testWalletAddress).Return(diversifiedPortfolio(), nil)

	var createdReport *entities.WalletReport
	reports.On("Create", mock.Anything, mock.AnythingOfType("*entities.WalletReport")).
		Run(func(args mock.Arguments) {
			createdReport = args.Get(1).(*entities.WalletReport)
		}).
		Return(nil)

	attached := make(chan struct{}, 1)
	aiProvider.On("Complete", mock.Anything, mock.Anything).
		Return(&ai.CompletionResponse{Content: "A well diversified portfolio."}, nil)
	reports.On("AttachNarrative", mock.Anything, mock.AnythingOfType("uuid.UUID"), "A well diversified portfolio.").
		Run(func(args mock.Arguments) {
			attached <- struct{}{}
		}).
		Return(nil)

	svc := NewWalletService(portfolios, reports, newTestNarrator(aiProvider), nil, zap.NewNop())

	result, err := svc.Analyze(context.Background(), testWalletAddress)

	assert.NoError(t, err)
	assert.Equal(t, testWalletAddress, result.WalletAddress)
	assert.Equal(t, entities.RiskLow, result.RiskLevel)
	assert.Equal(t, 25, result.RiskScore)
	assert.Equal(t, 12000.0, result.TotalValueUSD)

	assert.NotNil(t, createdReport)
	assert.Equal(t, "solana", createdReport.Chain)
	assert.Len(t, createdReport.Tokens, 12)

	select {
	case <-attached:
	case <-time.After(2 * time.Second):
		t.Fatal("narrative was never attached")
	}
	reports.AssertExpectations(t)
}

func TestWalletService_Analyze_PortfolioFailureAborts(t *testing.T) {
	portfolios := new(MockPortfolioProvider)
	reports := new(MockWalletReportRepository)

	portfolios.On("Portfolio", mock.Anything, testWalletAddress).Return(nil, errors.New("moralis 500"))

	svc := NewWalletService(portfolios, reports, nil, nil, zap.NewNop())

	result, err := svc.Analyze(context.Background(), testWalletAddress)

	assert.Error(t, err)
	assert.Nil(t, result)
	reports.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWalletService_QuickLookup_FallbackNarrative(t *testing.T) {
	portfolios := new(MockPortfolioProvider)
	aiProvider := new(MockAIProvider)

	portfolios.On("Portfolio", mock.Anything, testWalletAddress).Return(diversifiedPortfolio(), nil)
	aiProvider.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("unavailable"))

	svc := NewWalletService(portfolios, nil, newTestNarrator(aiProvider), nil, zap.NewNop())

	result, err := svc.QuickLookup(context.Background(), testWalletAddress)

	assert.NoError(t, err)
	assert.Contains(t, result.Narrative, "Portfolio analysis completed with")
	assert.Len(t, result.TopTokens, 5)
	assert.Equal(t, 12, result.TokenCount)
}

func TestWalletService_QuickLookup_EmptyAddress(t *testing.T) {
	svc := NewWalletService(nil, nil, nil, nil, zap.NewNop())

	result, err := svc.QuickLookup(context.Background(), "")

	assert.Error(t, err)
	assert.Nil(t, result)
}
