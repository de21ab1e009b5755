package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gearup/storefront/internal/cart"
	"github.com/gearup/storefront/internal/models"
	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	calls    int
	gotToken string
	got      *models.Order
	err      error
}

func (f *fakeSubmitter) CreateOrder(ctx context.Context, token string, order *models.Order) (*models.Order, error) {
	f.calls++
	f.gotToken = token
	f.got = order
	if f.err != nil {
		return nil, f.err
	}
	stored := *order
	stored.ID = "ord-42"
	return &stored, nil
}

func filledForm() Form {
	return Form{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@example.com",
		Phone:      "+237 600 000 000",
		Address:    "1 Main St",
		City:       "Douala",
		Country:    "Cameroon",
		PostalCode: "00237",
	}
}

func newCart(t *testing.T) *cart.Store {
	t.Helper()
	c := cart.New(&cart.MemoryStorage{})
	item := models.CartItem{ID: "p1", Name: "Trail Shoe", Price: decimal.RequireFromString("49.99"), Images: []string{"p1.jpg"}}
	require.NoError(t, c.Add(context.Background(), item, 2))
	return c
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newFlow(t *testing.T) *Flow {
	t.Helper()
	f, err := NewFlow(newCart(t), &Session{UID: "uid-1", Email: "ada@example.com", Token: "tok"}, Options{
		MerchantNumber: "237674066938",
		Sleep:          noSleep,
		NewKey:         func() string { return "key-1" },
		Now:            func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return f
}

func TestNewFlowGuards(t *testing.T) {
	_, err := NewFlow(newCart(t), nil, Options{})
	assert.ErrorIs(t, err, ErrNotSignedIn)

	_, err = NewFlow(cart.New(&cart.MemoryStorage{}), &Session{UID: "uid-1"}, Options{})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestFormValidateNamesEveryMissingField(t *testing.T) {
	err := Form{FirstName: "Ada", Email: "  "}.Validate()
	require.Error(t, err)

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"lastName", "email", "phone", "address", "city", "country", "postalCode"}, verr.Fields)

	assert.NoError(t, filledForm().Validate())
}

func TestSubmitInformationStaysOnInvalidForm(t *testing.T) {
	f := newFlow(t)
	err := f.SubmitInformation(Form{FirstName: "Ada"})
	assert.True(t, models.IsValidation(err))
	assert.Equal(t, StepInformation, f.Step())

	require.NoError(t, f.SubmitInformation(filledForm()))
	assert.Equal(t, StepShipping, f.Step())
}

func TestStepsOnlyMoveOneAtATime(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t)

	assert.ErrorIs(t, f.ChooseShipping(ctx, models.ShippingExpress), ErrWrongStep)
	_, err := f.Confirm(ctx, &fakeSubmitter{})
	assert.ErrorIs(t, err, ErrWrongStep)
	assert.ErrorIs(t, f.Back(), ErrWrongStep)

	require.NoError(t, f.SubmitInformation(filledForm()))
	assert.ErrorIs(t, f.SubmitInformation(filledForm()), ErrWrongStep)
	require.NoError(t, f.ChooseShipping(ctx, models.ShippingExpress))
	assert.Equal(t, StepPayment, f.Step())

	require.NoError(t, f.Back())
	assert.Equal(t, StepShipping, f.Step())
	assert.Equal(t, models.ShippingExpress, f.Method())
	require.NoError(t, f.Back())
	assert.Equal(t, StepInformation, f.Step())
	assert.Equal(t, "Douala", f.Form().City)
}

func TestChooseShippingRejectsUnknownMethod(t *testing.T) {
	f := newFlow(t)
	require.NoError(t, f.SubmitInformation(filledForm()))
	err := f.ChooseShipping(context.Background(), "drone")
	assert.True(t, models.IsValidation(err))
	assert.Equal(t, StepShipping, f.Step())
}

func TestChooseShippingCancelledDelayKeepsStep(t *testing.T) {
	f, err := NewFlow(newCart(t), &Session{UID: "uid-1"}, Options{Delay: time.Hour})
	require.NoError(t, err)
	require.NoError(t, f.SubmitInformation(filledForm()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = f.ChooseShipping(ctx, models.ShippingStandard)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StepShipping, f.Step())
}

func TestChooseShippingWaitsForDelay(t *testing.T) {
	f, err := NewFlow(newCart(t), &Session{UID: "uid-1"}, Options{Delay: 20 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, f.SubmitInformation(filledForm()))

	start := time.Now()
	require.NoError(t, f.ChooseShipping(context.Background(), models.ShippingStandard))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, StepPayment, f.Step())
}

func TestBuildOrderExpressTotal(t *testing.T) {
	items := []models.CartItem{{ID: "p1", Name: "Trail Shoe", Price: decimal.RequireFromString("49.99"), Quantity: 2}}
	total := decimal.RequireFromString("99.98")

	order := BuildOrder(items, total, filledForm(), models.ShippingExpress)

	assert.Equal(t, "114.98", order.Total.StringFixed(2))
	assert.True(t, order.Shipping.Cost.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, models.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, models.NoSize, order.Items[0].Size)
	assert.Equal(t, "p1", order.Items[0].ProductID)
	assert.Equal(t, "Ada", order.Customer.FirstName)
}

func TestBuildOrderStandardIsFree(t *testing.T) {
	items := []models.CartItem{{ID: "p1", Price: decimal.NewFromInt(10), Quantity: 1, Size: "M"}}
	order := BuildOrder(items, decimal.NewFromInt(10), filledForm(), models.ShippingStandard)
	assert.Equal(t, "10.00", order.Total.StringFixed(2))
	assert.True(t, order.Shipping.Cost.IsZero())
	assert.Equal(t, "M", order.Items[0].Size)
}

func TestConfirmSubmitsAndBuildsHandoff(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t)
	require.NoError(t, f.SubmitInformation(filledForm()))
	require.NoError(t, f.ChooseShipping(ctx, models.ShippingExpress))

	sub := &fakeSubmitter{}
	res, err := f.Confirm(ctx, sub)
	require.NoError(t, err)

	assert.Equal(t, "tok", sub.gotToken)
	assert.Equal(t, "uid-1", sub.got.UserID)
	assert.Equal(t, "key-1", sub.got.IdempotencyKey)
	assert.Equal(t, "114.98", sub.got.Total.StringFixed(2))
	assert.Equal(t, "ord-42", res.Order.ID)
	assert.Equal(t, HandoffLink("237674066938", "ord-42"), res.HandoffURL)

	_, err = f.Confirm(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, "key-1", sub.got.IdempotencyKey)
}

func TestConfirmFailureKeepsStepAndCart(t *testing.T) {
	ctx := context.Background()
	c := newCart(t)
	f, err := NewFlow(c, &Session{UID: "uid-1", Token: "tok"}, Options{Sleep: noSleep})
	require.NoError(t, err)
	require.NoError(t, f.SubmitInformation(filledForm()))
	require.NoError(t, f.ChooseShipping(ctx, models.ShippingStandard))

	boom := errors.New("server down")
	_, err = f.Confirm(ctx, &fakeSubmitter{err: boom})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StepPayment, f.Step())
	assert.Equal(t, 2, c.Count())
}

func TestHandoffLinkGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "handoff_link", []byte(HandoffLink("237674066938", "ord-42")))
}

func TestEncodeComponent(t *testing.T) {
	assert.Equal(t, "a%20b%23c%26d%3D!~*'()", encodeComponent("a b#c&d=!~*'()"))
	assert.Equal(t, "%C3%A9", encodeComponent("é"))
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "Shipping", StepShipping.String())
	assert.Equal(t, "Step(7)", Step(7).String())
}
