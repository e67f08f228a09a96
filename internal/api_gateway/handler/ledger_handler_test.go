package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pagemend/pagemend/internal/api_gateway/middleware"
	"github.com/pagemend/pagemend/internal/api_gateway/service"
	"github.com/pagemend/pagemend/internal/domain/account"
	"github.com/pagemend/pagemend/internal/domain/ledger"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, ownerID string, initialBalance int64) (*account.Account, error) {
	args := m.Called(ctx, ownerID, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByOwnerID(ctx context.Context, ownerID string) (*account.Account, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Debit(ctx context.Context, accountID uuid.UUID, amount int64, requestID, description string) (*ledger.Transaction, error) {
	args := m.Called(ctx, accountID, amount, requestID, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockLedgerService) Credit(ctx context.Context, accountID uuid.UUID, amount int64, requestID, description string) (*ledger.Transaction, error) {
	args := m.Called(ctx, accountID, amount, requestID, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockLedgerService) Refund(ctx context.Context, accountID uuid.UUID, amount int64, requestID, description string) (*ledger.Transaction, error) {
	args := m.Called(ctx, accountID, amount, requestID, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockLedgerService) Balance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) History(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*ledger.Transaction, int64, error) {
	args := m.Called(ctx, accountID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledger.Transaction), args.Get(1).(int64), args.Error(2)
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.Default()
	return r
}

// withIdentity injects an authenticated account id the way the identity
// middleware would
func withIdentity(accountID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.AccountIDKey, accountID)
		c.Next()
	}
}

func decodeData(t *testing.T, body []byte, out interface{}) *Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(body, &resp))
	if out != nil {
		require.NotNil(t, resp.Data)
		dataBytes, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(dataBytes, out))
	}
	return &resp
}

func TestLedgerHandler_CreateAccount(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockAccounts := new(MockAccountService)
		mockLedger := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockAccounts, mockLedger)

		now := time.Now()
		expected := &account.Account{
			ID:        uuid.New(),
			OwnerID:   "owner-42",
			Balance:   int64(25),
			CreatedAt: now,
			UpdatedAt: now,
		}
		mockAccounts.On("CreateAccount", mock.Anything, "owner-42", int64(25)).Return(expected, nil)

		router := setupTestRouter()
		router.POST("/accounts", handler.CreateAccount)

		jsonBody, _ := json.Marshal(CreateAccountRequest{OwnerID: "owner-42", InitialBalance: 25})
		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var body AccountResponse
		decodeData(t, rr.Body.Bytes(), &body)
		assert.Equal(t, expected.ID.String(), body.ID)
		assert.Equal(t, "owner-42", body.OwnerID)
		assert.Equal(t, int64(25), body.Balance)

		mockAccounts.AssertExpectations(t)
	})

	t.Run("InvalidRequestBody", func(t *testing.T) {
		mockAccounts := new(MockAccountService)
		handler := NewLedgerHandler(logger, mockAccounts, new(MockLedgerService))

		router := setupTestRouter()
		router.POST("/accounts", handler.CreateAccount)

		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBufferString(`{"owner_id`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockAccounts.AssertExpectations(t)
	})

	t.Run("DuplicateOwner", func(t *testing.T) {
		mockAccounts := new(MockAccountService)
		handler := NewLedgerHandler(logger, mockAccounts, new(MockLedgerService))

		mockAccounts.On("CreateAccount", mock.Anything, "owner-42", int64(0)).
			Return(nil, account.ErrDuplicateOwner{OwnerID: "owner-42"})

		router := setupTestRouter()
		router.POST("/accounts", handler.CreateAccount)

		jsonBody, _ := json.Marshal(CreateAccountRequest{OwnerID: "owner-42"})
		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		resp := decodeData(t, rr.Body.Bytes(), nil)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "DUPLICATE_ACCOUNT", resp.Error.Code)
		mockAccounts.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockAccounts := new(MockAccountService)
		handler := NewLedgerHandler(logger, mockAccounts, new(MockLedgerService))

		mockAccounts.On("CreateAccount", mock.Anything, "owner-42", int64(0)).
			Return(nil, errors.New("database unavailable"))

		router := setupTestRouter()
		router.POST("/accounts", handler.CreateAccount)

		jsonBody, _ := json.Marshal(CreateAccountRequest{OwnerID: "owner-42"})
		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockAccounts.AssertExpectations(t)
	})
}

func TestLedgerHandler_GetBalance(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockLedger := new(MockLedgerService)
		handler := NewLedgerHandler(logger, new(MockAccountService), mockLedger)

		accountID := uuid.New()
		mockLedger.On("Balance", mock.Anything, accountID).Return(int64(42), nil)

		router := setupTestRouter()
		router.GET("/balance", withIdentity(accountID), handler.GetBalance)

		req, _ := http.NewRequest(http.MethodGet, "/balance", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body BalanceResponse
		decodeData(t, rr.Body.Bytes(), &body)
		assert.Equal(t, accountID.String(), body.AccountID)
		assert.Equal(t, int64(42), body.Balance)
		mockLedger.AssertExpectations(t)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		mockLedger := new(MockLedgerService)
		handler := NewLedgerHandler(logger, new(MockAccountService), mockLedger)

		accountID := uuid.New()
		mockLedger.On("Balance", mock.Anything, accountID).
			Return(int64(0), account.ErrAccountNotFound{AccountID: accountID})

		router := setupTestRouter()
		router.GET("/balance", withIdentity(accountID), handler.GetBalance)

		req, _ := http.NewRequest(http.MethodGet, "/balance", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockLedger.AssertExpectations(t)
	})
}

func TestLedgerHandler_GetTransactions(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockLedger := new(MockLedgerService)
		handler := NewLedgerHandler(logger, new(MockAccountService), mockLedger)

		accountID := uuid.New()
		txns := []*ledger.Transaction{
			{
				ID:            uuid.New(),
				AccountID:     accountID,
				RequestID:     "apply:abc:1",
				Kind:          ledger.KindDeduct,
				Amount:        10,
				BalanceBefore: 15,
				BalanceAfter:  5,
				CreatedAt:     time.Now(),
			},
		}
		mockLedger.On("History", mock.Anything, accountID, 1, 20).Return(txns, int64(1), nil)

		router := setupTestRouter()
		router.GET("/transactions", withIdentity(accountID), handler.GetTransactions)

		req, _ := http.NewRequest(http.MethodGet, "/transactions", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body []TransactionResponse
		resp := decodeData(t, rr.Body.Bytes(), &body)
		require.Len(t, body, 1)
		assert.Equal(t, "apply:abc:1", body[0].RequestID)
		assert.Equal(t, string(ledger.KindDeduct), body[0].Kind)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, 1, resp.Meta.TotalItems)
		mockLedger.AssertExpectations(t)
	})

	t.Run("InvalidPagination", func(t *testing.T) {
		mockLedger := new(MockLedgerService)
		handler := NewLedgerHandler(logger, new(MockAccountService), mockLedger)

		accountID := uuid.New()
		router := setupTestRouter()
		router.GET("/transactions", withIdentity(accountID), handler.GetTransactions)

		req, _ := http.NewRequest(http.MethodGet, "/transactions?per_page=5000", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockLedger.AssertExpectations(t)
	})
}

var _ service.AccountService = (*MockAccountService)(nil)
var _ service.LedgerService = (*MockLedgerService)(nil)
