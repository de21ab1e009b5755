package invoice

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gearup/storefront/internal/models"
	"github.com/shopspring/decimal"
)

var ErrNilOrder = errors.New("invoice: nil order")

// A4 portrait, millimetres.
const (
	PageWidth  = 210.0
	PageHeight = 297.0
	Margin     = 20.0

	rowHeight    = 8.0
	footerBreak  = 60.0
	totalsOffset = 60.0
)

var (
	columnHeaders = []string{"Item", "Price", "Quantity", "Total"}
	columnWidths  = []float64{90, 30, 25, 35}
)

type OpKind string

const (
	OpAddPage   OpKind = "page"
	OpFontSize  OpKind = "size"
	OpTextColor OpKind = "color"
	OpFillColor OpKind = "fill"
	OpRect      OpKind = "rect"
	OpText      OpKind = "text"
)

type Align string

const (
	AlignLeft   Align = "left"
	AlignRight  Align = "right"
	AlignCenter Align = "center"
)

// Op is one drawing instruction. Text ops are anchored at X according to
// Align; Angle rotates the text counter-clockwise around its anchor.
type Op struct {
	Kind  OpKind
	X, Y  float64
	W, H  float64
	Size  float64
	Gray  int
	Text  string
	Align Align
	Angle float64
}

func (o Op) String() string {
	switch o.Kind {
	case OpAddPage:
		return "page"
	case OpFontSize:
		return fmt.Sprintf("size %g", o.Size)
	case OpTextColor, OpFillColor:
		return fmt.Sprintf("%s %d", o.Kind, o.Gray)
	case OpRect:
		return fmt.Sprintf("rect %g,%g %gx%g", o.X, o.Y, o.W, o.H)
	}
	s := fmt.Sprintf("text %s %g,%g %q", o.Align, o.X, o.Y, o.Text)
	if o.Angle != 0 {
		s += fmt.Sprintf(" angle %g", o.Angle)
	}
	return s
}

type Options struct {
	Brand    string
	Currency string
}

func (o Options) withDefaults() Options {
	if o.Brand == "" {
		o.Brand = "GearUp"
	}
	if o.Currency == "" {
		o.Currency = "$"
	}
	return o
}

type builder struct {
	ops []Op
}

func (b *builder) add(op Op) { b.ops = append(b.ops, op) }

func (b *builder) size(pt float64) { b.add(Op{Kind: OpFontSize, Size: pt}) }

func (b *builder) color(gray int) { b.add(Op{Kind: OpTextColor, Gray: gray}) }

func (b *builder) text(s string, x, y float64, align Align) {
	b.add(Op{Kind: OpText, X: x, Y: y, Text: s, Align: align})
}

// Layout computes the invoice as drawing operations without touching a PDF.
// The grand total is the stored order total; subtotal is derived from it.
func Layout(order *models.Order, opts Options) ([]Op, error) {
	if order == nil {
		return nil, ErrNilOrder
	}
	opts = opts.withDefaults()
	money := func(d decimal.Decimal) string { return opts.Currency + d.StringFixed(2) }

	b := &builder{}
	b.add(Op{Kind: OpAddPage})
	y := Margin

	b.size(60)
	b.color(230)
	b.add(Op{Kind: OpText, X: PageWidth / 2, Y: PageHeight / 2, Text: strings.ToUpper(opts.Brand), Align: AlignCenter, Angle: 45})

	b.color(66)
	b.size(24)
	b.text("INVOICE", PageWidth-Margin, y, AlignRight)

	b.size(10)
	y += 10
	b.text("Invoice #: "+order.ID, PageWidth-Margin, y, AlignRight)
	y += 5
	b.text("Date: "+formatDate(order.CreatedAt), PageWidth-Margin, y, AlignRight)

	y += 20
	b.size(12)
	b.color(66)
	if c := order.Customer; c != nil {
		b.text("BILL TO:", Margin, y, AlignLeft)
		b.size(10)
		y += 7
		b.text(c.FirstName+" "+c.LastName, Margin, y, AlignLeft)
		y += 5
		b.text(c.Email, Margin, y, AlignLeft)
		y += 5
		b.text(c.Phone, Margin, y, AlignLeft)
	}

	if s := order.Shipping; s != nil {
		y += 15
		b.size(12)
		b.text("SHIP TO:", Margin, y, AlignLeft)
		b.size(10)
		y += 7
		b.text(s.Address, Margin, y, AlignLeft)
		y += 5
		b.text(fmt.Sprintf("%s, %s %s", s.City, s.Country, s.PostalCode), Margin, y, AlignLeft)
		y += 5
		b.text("Method: "+string(s.Method), Margin, y, AlignLeft)
	}

	y += 20
	b.add(Op{Kind: OpFillColor, Gray: 240})
	b.add(Op{Kind: OpRect, X: Margin, Y: y, W: PageWidth - 2*Margin, H: rowHeight})
	b.color(66)
	x := Margin
	for i, h := range columnHeaders {
		b.text(h, x+2, y+6, AlignLeft)
		x += columnWidths[i]
	}

	y += rowHeight
	b.color(88)
	for _, item := range order.Items {
		if y > PageHeight-footerBreak {
			b.add(Op{Kind: OpAddPage})
			y = Margin
		}
		cells := []string{
			itemLabel(item),
			money(item.Price),
			fmt.Sprintf("%d", item.Quantity),
			money(item.LineTotal()),
		}
		x = Margin
		for i, cell := range cells {
			b.text(cell, x+2, y+5, AlignLeft)
			x += columnWidths[i]
		}
		y += rowHeight
	}

	shipping := order.ShippingCost()
	totalsX := PageWidth - Margin - totalsOffset

	y += 10
	b.text("Subtotal:", totalsX, y, AlignLeft)
	b.text(money(order.Total.Sub(shipping)), PageWidth-Margin, y, AlignRight)

	y += 8
	b.text("Shipping:", totalsX, y, AlignLeft)
	b.text(money(shipping), PageWidth-Margin, y, AlignRight)

	y += 8
	b.size(12)
	b.color(66)
	b.text("Total:", totalsX, y, AlignLeft)
	b.text(money(order.Total), PageWidth-Margin, y, AlignRight)

	b.size(9)
	b.color(120)
	b.text("Thank you for your Confidence!", PageWidth/2, PageHeight-Margin-5, AlignCenter)

	return b.ops, nil
}

func itemLabel(item models.OrderItem) string {
	switch item.Size {
	case "", "NONE", models.NoSize:
		return item.Name
	}
	return fmt.Sprintf("%s (%s)", item.Name, item.Size)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format("Jan 2, 2006, 3:04:05 PM")
}

func FileName(brand, orderID string) string {
	if brand == "" {
		brand = "GearUp"
	}
	return fmt.Sprintf("%s-Invoice-%s.pdf", brand, orderID)
}
