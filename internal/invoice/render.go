package invoice

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gearup/storefront/internal/models"
	"github.com/go-pdf/fpdf"
)

const fontFamily = "Helvetica"

// Render draws the invoice for order as a PDF. Document dates are pinned to
// the order's creation time so the same order always renders the same bytes.
func Render(order *models.Order, opts Options) ([]byte, error) {
	ops, err := Layout(order, opts)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	stamp := order.CreatedAt.UTC()
	if stamp.IsZero() {
		stamp = time.Unix(0, 0).UTC()
	}
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(FileName(opts.withDefaults().Brand, order.ID), true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont(fontFamily, "", 16)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, op := range ops {
		replay(pdf, tr, op)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write invoice: %w", err)
	}
	return buf.Bytes(), nil
}

func replay(pdf *fpdf.Fpdf, tr func(string) string, op Op) {
	switch op.Kind {
	case OpAddPage:
		pdf.AddPage()
	case OpFontSize:
		pdf.SetFontSize(op.Size)
	case OpTextColor:
		pdf.SetTextColor(op.Gray, op.Gray, op.Gray)
	case OpFillColor:
		pdf.SetFillColor(op.Gray, op.Gray, op.Gray)
	case OpRect:
		pdf.Rect(op.X, op.Y, op.W, op.H, "F")
	case OpText:
		s := tr(op.Text)
		x := op.X
		switch op.Align {
		case AlignRight:
			x -= pdf.GetStringWidth(s)
		case AlignCenter:
			x -= pdf.GetStringWidth(s) / 2
		}
		if op.Angle != 0 {
			pdf.TransformBegin()
			pdf.TransformRotate(op.Angle, op.X, op.Y)
			pdf.Text(x, op.Y, s)
			pdf.TransformEnd()
			return
		}
		pdf.Text(x, op.Y, s)
	}
}
