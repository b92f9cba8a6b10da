package orders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/logger"
	"foodcourt/pkg/errors"
	"foodcourt/pkg/models"
)

type fakeRestrictor struct {
	suspended map[string]bool
	caps      map[string]int
	err       error
}

func (f *fakeRestrictor) SuspendProduct(ctx context.Context, productID string) error {
	if f.suspended == nil {
		f.suspended = map[string]bool{}
	}
	f.suspended[productID] = true
	return f.err
}

func (f *fakeRestrictor) LimitProduct(ctx context.Context, productID string, maxQuantity int) error {
	if f.caps == nil {
		f.caps = map[string]int{}
	}
	f.caps[productID] = maxQuantity
	return f.err
}

func (f *fakeRestrictor) LiftRestrictions(ctx context.Context, productID string) error {
	delete(f.suspended, productID)
	delete(f.caps, productID)
	return f.err
}

func (f *fakeRestrictor) IsSuspended(ctx context.Context, productID string) (bool, error) {
	return f.suspended[productID], f.err
}

func (f *fakeRestrictor) MaxQuantity(ctx context.Context, productID string) (int, bool, error) {
	max, ok := f.caps[productID]
	return max, ok, f.err
}

func usersServiceStub(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func knownUserHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"user":{"id":"42"}}`))
}

func newTestService(t *testing.T, usersURL string, restrictor Restrictor) (*Service, *fakeProducer) {
	t.Helper()
	log := logger.NopLogger()
	producer := &fakeProducer{connected: true}
	return NewService(
		NewMemoryStore(),
		NewEventPublisher(producer, log),
		NewUserClient(usersURL, time.Second, log),
		restrictor,
		log,
	), producer
}

func createRequest() CreateOrderRequest {
	return CreateOrderRequest{
		UserID: "42",
		Items: []models.OrderItem{
			{ProductID: "prod-001", ProductName: "Margherita Pizza", Price: 12.50, Quantity: 2},
		},
		DeliveryAddress: models.DeliveryAddress{Street: "123 Main St", City: "Springfield"},
		PaymentMethod:   "card",
	}
}

func TestCreateOrder(t *testing.T) {
	srv := usersServiceStub(t, knownUserHandler)
	svc, producer := newTestService(t, srv.URL, &fakeRestrictor{})

	order, err := svc.CreateOrder(context.Background(), createRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, 25.00, order.TotalAmount)
	require.Len(t, producer.published, 1)

	stored, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
}

func TestCreateOrderRejectsUnknownUser(t *testing.T) {
	srv := usersServiceStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	svc, producer := newTestService(t, srv.URL, &fakeRestrictor{})

	_, err := svc.CreateOrder(context.Background(), createRequest())
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, producer.published)
}

func TestCreateOrderAcceptsWhenUsersServiceDown(t *testing.T) {
	srv := usersServiceStub(t, knownUserHandler)
	url := srv.URL
	srv.Close()

	svc, producer := newTestService(t, url, &fakeRestrictor{})

	// Degraded collaborator: intake continues unverified.
	order, err := svc.CreateOrder(context.Background(), createRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	require.Len(t, producer.published, 1)
}

func TestCreateOrderRejectsSuspendedProduct(t *testing.T) {
	srv := usersServiceStub(t, knownUserHandler)
	restrictor := &fakeRestrictor{suspended: map[string]bool{"prod-001": true}}
	svc, _ := newTestService(t, srv.URL, restrictor)

	_, err := svc.CreateOrder(context.Background(), createRequest())
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestCreateOrderEnforcesQuantityCap(t *testing.T) {
	srv := usersServiceStub(t, knownUserHandler)
	restrictor := &fakeRestrictor{caps: map[string]int{"prod-001": 1}}
	svc, _ := newTestService(t, srv.URL, restrictor)

	_, err := svc.CreateOrder(context.Background(), createRequest())
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	req := createRequest()
	req.Items[0].Quantity = 1
	_, err = svc.CreateOrder(context.Background(), req)
	assert.NoError(t, err)
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	srv := usersServiceStub(t, knownUserHandler)
	svc, _ := newTestService(t, srv.URL, &fakeRestrictor{})

	req := createRequest()
	req.Items = nil
	_, err := svc.CreateOrder(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestUpdateStatus(t *testing.T) {
	srv := usersServiceStub(t, knownUserHandler)
	svc, producer := newTestService(t, srv.URL, &fakeRestrictor{})

	order, err := svc.CreateOrder(context.Background(), createRequest())
	require.NoError(t, err)
	producer.published = nil

	updated, err := svc.UpdateStatus(context.Background(), order.ID, models.StatusConfirmed, "paid")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, updated.Status)
	assert.Equal(t, "paid", updated.Notes)
	require.Len(t, producer.published, 1)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	srv := usersServiceStub(t, knownUserHandler)
	svc, _ := newTestService(t, srv.URL, &fakeRestrictor{})

	_, err := svc.UpdateStatus(context.Background(), "missing", models.StatusConfirmed, "")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdateStatusRejectsTerminalOrders(t *testing.T) {
	srv := usersServiceStub(t, knownUserHandler)
	svc, producer := newTestService(t, srv.URL, &fakeRestrictor{})

	order, err := svc.CreateOrder(context.Background(), createRequest())
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), order.ID, models.StatusCancelled, "changed my mind")
	require.NoError(t, err)
	producer.published = nil

	// A cancelled order stays cancelled; no reopening and no spurious event.
	_, err = svc.UpdateStatus(context.Background(), order.ID, models.StatusPending, "")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, producer.published)

	stored, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)
}

func TestUpdateStatusRejectsDeliveredOrders(t *testing.T) {
	srv := usersServiceStub(t, knownUserHandler)
	svc, producer := newTestService(t, srv.URL, &fakeRestrictor{})

	order, err := svc.CreateOrder(context.Background(), createRequest())
	require.NoError(t, err)
	for _, status := range []models.OrderStatus{
		models.StatusConfirmed, models.StatusPreparing, models.StatusOutForDelivery, models.StatusDelivered,
	} {
		_, err = svc.UpdateStatus(context.Background(), order.ID, status, "")
		require.NoError(t, err)
	}
	producer.published = nil

	_, err = svc.UpdateStatus(context.Background(), order.ID, models.StatusCancelled, "")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, producer.published)
}

func TestUpdateStatusRejectsSameStatus(t *testing.T) {
	srv := usersServiceStub(t, knownUserHandler)
	svc, producer := newTestService(t, srv.URL, &fakeRestrictor{})

	order, err := svc.CreateOrder(context.Background(), createRequest())
	require.NoError(t, err)
	producer.published = nil

	_, err = svc.UpdateStatus(context.Background(), order.ID, models.StatusPending, "")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, producer.published)
}

func TestUpdateStatusRejectsInvalidStatus(t *testing.T) {
	srv := usersServiceStub(t, knownUserHandler)
	svc, _ := newTestService(t, srv.URL, &fakeRestrictor{})

	_, err := svc.UpdateStatus(context.Background(), "whatever", models.OrderStatus("shipped"), "")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
