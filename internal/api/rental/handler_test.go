package rental_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gorental/internal/api/rental"
	"gorental/internal/domain"
	apperror "gorental/internal/errors"
	"gorental/internal/pkg/logger"
	"gorental/internal/pkg/middleware"
)

// MockRentalService é uma implementação mock do contrato RentalService
type MockRentalService struct {
	mock.Mock
}

func (m *MockRentalService) CreateOrder(ctx context.Context, claims domain.UserClaims, input domain.OrderCreation) (int64, error) {
	args := m.Called(ctx, claims, input)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRentalService) GetOrder(ctx context.Context, claims domain.UserClaims, orderID int64) (domain.Order, error) {
	args := m.Called(ctx, claims, orderID)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockRentalService) GetRentedCars(ctx context.Context, claims domain.UserClaims) (domain.RentedCars, error) {
	args := m.Called(ctx, claims)
	return args.Get(0).(domain.RentedCars), args.Error(1)
}

func (m *MockRentalService) DeleteOrder(ctx context.Context, orderID int64) (int64, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(int64), args.Error(1)
}

func newTestHandler(svc rental.RentalService) *rental.Handler {
	return rental.NewHandler(svc, logger.NewLogger("debug"))
}

// withClaims injeta claims autenticadas no contexto, como faria o AuthMiddleware.
func withClaims(req *http.Request, claims domain.UserClaims) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserClaimsKey, claims)
	return req.WithContext(ctx)
}

var aliceClaims = domain.UserClaims{UserID: 7, Username: "alice", Role: domain.RoleUser}

// --- POST /rental ---

func TestCreateOrderHandler_Success(t *testing.T) {
	mockSvc := new(MockRentalService)
	h := newTestHandler(mockSvc)

	body := `{"car_id":1,"country":"US","city":"NYC","address":"5th Ave","amount_days":3,"color":"red","renttime":"10:00"}`
	mockSvc.On("CreateOrder", mock.Anything, aliceClaims, mock.Anything).Return(int64(42), nil)

	req := withClaims(httptest.NewRequest(http.MethodPost, "/rental", bytes.NewBufferString(body)), aliceClaims)
	rec := httptest.NewRecorder()

	h.CreateOrderHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp domain.Response
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "Order is successful", resp.StatusText)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(42), data["orderId"])
	mockSvc.AssertExpectations(t)
}

func TestCreateOrderHandler_Fail_Validation(t *testing.T) {
	mockSvc := new(MockRentalService)
	h := newTestHandler(mockSvc)

	body := `{"car_id":1,"country":"US","city":"NYC","address":"5th Ave","amount_days":0,"color":"red","renttime":"10:00"}`
	mockSvc.On("CreateOrder", mock.Anything, aliceClaims, mock.Anything).
		Return(int64(0), apperror.NewValidationError("amount_days: obrigatório e deve ser um inteiro positivo"))

	req := withClaims(httptest.NewRequest(http.MethodPost, "/rental", bytes.NewBufferString(body)), aliceClaims)
	rec := httptest.NewRecorder()

	h.CreateOrderHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp domain.Response
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	// O contrato expõe o texto do erro de validação na statusText
	assert.Contains(t, resp.StatusText, "Server crashed with following error")
	assert.Contains(t, resp.StatusText, "amount_days")
}

func TestCreateOrderHandler_Fail_UnknownCar(t *testing.T) {
	mockSvc := new(MockRentalService)
	h := newTestHandler(mockSvc)

	body := `{"car_id":999,"country":"US","city":"NYC","address":"5th Ave","amount_days":3,"color":"red","renttime":"10:00"}`
	mockSvc.On("CreateOrder", mock.Anything, aliceClaims, mock.Anything).
		Return(int64(0), apperror.NewIntegrityError("referência inexistente (user_id=7, car_id=999)", nil))

	req := withClaims(httptest.NewRequest(http.MethodPost, "/rental", bytes.NewBufferString(body)), aliceClaims)
	rec := httptest.NewRecorder()

	h.CreateOrderHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp domain.Response
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.StatusText, "Server crashed with following error")
}

func TestCreateOrderHandler_Fail_NoClaims(t *testing.T) {
	mockSvc := new(MockRentalService)
	h := newTestHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/rental", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()

	h.CreateOrderHandler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	mockSvc.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
}

// --- GET /rental/{orderId} ---

func TestGetOrderHandler_Success(t *testing.T) {
	mockSvc := new(MockRentalService)
	h := newTestHandler(mockSvc)

	order := domain.Order{OrderID: 42, UserID: 7, CarID: 1, Country: "US", City: "NYC", Address: "5th Ave", AmountDays: 3, Color: "red", RentTime: "10:00"}
	mockSvc.On("GetOrder", mock.Anything, aliceClaims, int64(42)).Return(order, nil)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/rental/42", nil), aliceClaims)
	rec := httptest.NewRecorder()

	h.GetOrderHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	// A resposta de sucesso é o objeto cru do pedido, sem envelope
	var got domain.Order
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, order, got)
	mockSvc.AssertExpectations(t)
}

// TestGetOrderHandler_OtherUsersOrder verifica que o handler serve o pedido
// de OUTRO usuário a qualquer autenticado — a leitura não checa ownership
// (contrato público atual).
func TestGetOrderHandler_OtherUsersOrder(t *testing.T) {
	mockSvc := new(MockRentalService)
	h := newTestHandler(mockSvc)

	otherUsersOrder := domain.Order{OrderID: 42, UserID: 99, CarID: 1, Country: "US", City: "NYC", Address: "5th Ave", AmountDays: 3, Color: "red", RentTime: "10:00"}
	mockSvc.On("GetOrder", mock.Anything, aliceClaims, int64(42)).Return(otherUsersOrder, nil)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/rental/42", nil), aliceClaims)
	rec := httptest.NewRecorder()

	h.GetOrderHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got domain.Order
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(99), got.UserID)
}

func TestGetOrderHandler_Fail_NotFound(t *testing.T) {
	mockSvc := new(MockRentalService)
	h := newTestHandler(mockSvc)

	mockSvc.On("GetOrder", mock.Anything, aliceClaims, int64(42)).
		Return(domain.Order{}, apperror.NewNotFoundError("There is no such id in database"))

	req := withClaims(httptest.NewRequest(http.MethodGet, "/rental/42", nil), aliceClaims)
	rec := httptest.NewRecorder()

	h.GetOrderHandler(rec, req)

	// Not found responde 400 com o corpo cru {code, message} — contrato da API
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp domain.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "There is no such id in database", resp.Message)
}

// --- DELETE /rental/{orderId} ---

func TestDeleteOrderHandler_Success(t *testing.T) {
	mockSvc := new(MockRentalService)
	h := newTestHandler(mockSvc)

	mockSvc.On("DeleteOrder", mock.Anything, int64(42)).Return(int64(42), nil)

	adminClaims := domain.UserClaims{UserID: 1, Username: "root", Role: domain.RoleAdmin}
	req := withClaims(httptest.NewRequest(http.MethodDelete, "/rental/42", nil), adminClaims)
	rec := httptest.NewRecorder()

	h.DeleteOrderHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int64
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp["orderId"])
	mockSvc.AssertExpectations(t)
}

// TestDeleteOrderRoute_OwnerForbidden verifica a cadeia completa do gate:
// o dono do pedido, sem role admin, é barrado pelo RequirePolicy com 403 e
// o pedido permanece intacto.
func TestDeleteOrderRoute_OwnerForbidden(t *testing.T) {
	mockSvc := new(MockRentalService)
	h := newTestHandler(mockSvc)

	adminOnly := middleware.RequirePolicy(middleware.PolicyAdmin)
	gated := adminOnly(h.DeleteOrderHandler)

	req := withClaims(httptest.NewRequest(http.MethodDelete, "/rental/42", nil), aliceClaims)
	rec := httptest.NewRecorder()

	gated(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	mockSvc.AssertNotCalled(t, "DeleteOrder", mock.Anything, mock.Anything)
}

func TestDeleteOrderHandler_Fail_NotFound(t *testing.T) {
	mockSvc := new(MockRentalService)
	h := newTestHandler(mockSvc)

	mockSvc.On("DeleteOrder", mock.Anything, int64(42)).
		Return(int64(0), apperror.NewNotFoundError("There is no such id in database"))

	adminClaims := domain.UserClaims{UserID: 1, Username: "root", Role: domain.RoleAdmin}
	req := withClaims(httptest.NewRequest(http.MethodDelete, "/rental/42", nil), adminClaims)
	rec := httptest.NewRecorder()

	h.DeleteOrderHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp domain.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "There is no such id in database", resp.Message)
}

// --- GET /rental/getRentedCars ---

func TestGetRentedCarsHandler_Success(t *testing.T) {
	mockSvc := new(MockRentalService)
	h := newTestHandler(mockSvc)

	rented := domain.RentedCars{
		Quantity: 1,
		Cars:     []domain.Car{{CarID: 10, Brand: "Fiat", Model: "Uno", Year: 2019, Color: "white"}},
	}
	mockSvc.On("GetRentedCars", mock.Anything, aliceClaims).Return(rented, nil)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/rental/getRentedCars", nil), aliceClaims)
	rec := httptest.NewRecorder()

	h.GetRentedCarsHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got domain.RentedCars
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Quantity)
	assert.Len(t, got.Cars, 1)
}

// TestGetRentedCarsHandler_Fail_Empty verifica que zero pedidos responde a
// falha 400 do contrato, não uma lista vazia com 200.
func TestGetRentedCarsHandler_Fail_Empty(t *testing.T) {
	mockSvc := new(MockRentalService)
	h := newTestHandler(mockSvc)

	mockSvc.On("GetRentedCars", mock.Anything, aliceClaims).
		Return(domain.RentedCars{}, apperror.NewNotFoundError("There is no such id in database"))

	req := withClaims(httptest.NewRequest(http.MethodGet, "/rental/getRentedCars", nil), aliceClaims)
	rec := httptest.NewRecorder()

	h.GetRentedCarsHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp domain.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "There is no such id in database", resp.Message)
}
