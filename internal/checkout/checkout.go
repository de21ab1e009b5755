package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gearup/storefront/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotSignedIn = errors.New("sign in to check out")
	ErrEmptyCart   = errors.New("cart is empty")
	ErrWrongStep   = errors.New("action not available at this step")
)

type Step int

const (
	StepInformation Step = iota + 1
	StepShipping
	StepPayment
)

func (s Step) String() string {
	switch s {
	case StepInformation:
		return "Information"
	case StepShipping:
		return "Shipping"
	case StepPayment:
		return "Payment"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

const DefaultDelay = 1500 * time.Millisecond

// Session is the signed-in shopper placing the order.
type Session struct {
	UID   string
	Email string
	Token string
}

// Cart is the read side of the session cart the flow snapshots from.
type Cart interface {
	Items() []models.CartItem
	Total() decimal.Decimal
	IsEmpty() bool
}

type Submitter interface {
	CreateOrder(ctx context.Context, token string, order *models.Order) (*models.Order, error)
}

type Options struct {
	MerchantNumber string
	Delay          time.Duration
	Sleep          func(ctx context.Context, d time.Duration) error
	NewKey         func() string
	Now            func() time.Time
}

type Result struct {
	Order      *models.Order
	HandoffURL string
}

type Flow struct {
	cart    Cart
	session Session
	opts    Options
	step    Step
	form    Form
	method  models.ShippingMethod
	key     string
}

// NewFlow starts a checkout. The sign-in and non-empty cart guards run here
// only and are not re-checked as the flow advances.
func NewFlow(c Cart, session *Session, opts Options) (*Flow, error) {
	if session == nil || session.UID == "" {
		return nil, ErrNotSignedIn
	}
	if c == nil || c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	if opts.NewKey == nil {
		opts.NewKey = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Flow{
		cart:    c,
		session: *session,
		opts:    opts,
		step:    StepInformation,
		form:    Form{Email: session.Email},
		method:  models.ShippingStandard,
		key:     opts.NewKey(),
	}, nil
}

func (f *Flow) Step() Step { return f.step }
func (f *Flow) Form() Form { return f.form }
func (f *Flow) Method() models.ShippingMethod { return f.method }
func (f *Flow) IdempotencyKey() string { return f.key }

// SubmitInformation records the contact and address form and advances to
// shipping when every required field is filled.
func (f *Flow) SubmitInformation(form Form) error {
	if f.step != StepInformation {
		return ErrWrongStep
	}
	f.form = form
	if err := form.Validate(); err != nil {
		return err
	}
	f.step = StepShipping
	return nil
}

// ChooseShipping records the method, waits out the configured delay and
// advances to payment. Cancelling ctx during the wait leaves the flow at
// shipping.
func (f *Flow) ChooseShipping(ctx context.Context, method models.ShippingMethod) error {
	if f.step != StepShipping {
		return ErrWrongStep
	}
	if !method.Valid() {
		return models.NewValidationError("unknown shipping method", "method")
	}
	f.method = method

	if err := f.opts.Sleep(ctx, f.opts.Delay); err != nil {
		return err
	}
	f.step = StepPayment
	return nil
}

func (f *Flow) Back() error {
	if f.step == StepInformation {
		return ErrWrongStep
	}
	f.step--
	return nil
}

// Confirm submits the order. On failure the flow stays at payment so the
// shopper can retry; the cart is left as is either way.
func (f *Flow) Confirm(ctx context.Context, submitter Submitter) (*Result, error) {
	if f.step != StepPayment {
		return nil, ErrWrongStep
	}

	order := BuildOrder(f.cart.Items(), f.cart.Total(), f.form, f.method)
	now := f.opts.Now().UTC()
	order.UserID = f.session.UID
	order.CreatedAt = now
	order.UpdatedAt = now
	order.IdempotencyKey = f.key

	stored, err := submitter.CreateOrder(ctx, f.session.Token, order)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}

	return &Result{
		Order:      stored,
		HandoffURL: HandoffLink(f.opts.MerchantNumber, stored.ID),
	}, nil
}

// BuildOrder snapshots cart lines into a pending order. The total is the cart
// total plus the method's shipping cost.
func BuildOrder(items []models.CartItem, cartTotal decimal.Decimal, form Form, method models.ShippingMethod) *models.Order {
	lines := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		size := item.Size
		if size == "" {
			size = models.NoSize
		}
		lines = append(lines, models.OrderItem{
			ProductID: item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Size:      size,
			Images:    append([]string(nil), item.Images...),
		})
	}

	cost := method.Cost()
	return &models.Order{
		Status: models.OrderStatusPending,
		Items:  lines,
		Total:  cartTotal.Add(cost),
		Shipping: &models.Shipping{
			Method:     method,
			Cost:       cost,
			Address:    form.Address,
			City:       form.City,
			Country:    form.Country,
			PostalCode: form.PostalCode,
			Notes:      form.Notes,
		},
		Customer: &models.Customer{
			FirstName: form.FirstName,
			LastName:  form.LastName,
			Email:     form.Email,
			Phone:     form.Phone,
		},
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
