// Package pdf genera el comprobante de préstamo en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Comprobante de préstamo  │  N° + Estado + Fecha     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  EMPLEADO: Nombre + ID  │  Abierto por                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | Tipo | Descripción | Cant. | Devuelto            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FIRMAS: retiro / devolución  +  QR con el ID del préstamo   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/prestamos-api/internal/application/usecase"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

const dateLayout = "02/01/2006 15:04"

var _ usecase.ReceiptRenderer = (*ReceiptGenerator)(nil)

// ReceiptGenerator implementa usecase.ReceiptRenderer usando Maroto v2.
type ReceiptGenerator struct {
	company string
}

// NewReceiptGenerator construye el generador; company aparece como autor del documento.
func NewReceiptGenerator(company string) *ReceiptGenerator {
	return &ReceiptGenerator{company: company}
}

// RenderLoanReceipt genera el PDF y devuelve sus bytes.
func (g *ReceiptGenerator) RenderLoanReceipt(_ context.Context, rc *usecase.LoanReceipt) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante de préstamo", true).
		WithAuthor(g.company, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(rc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(employeeRow(rc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(lineRows(rc.Lines)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(rc))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(rc *usecase.LoanReceipt) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("COMPROBANTE DE PRÉSTAMO", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Préstamo de equipos a empleado", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(rc.LoanID, props.Text{
				Size: 7, Align: align.Right, Top: 1, Color: colorGray,
			}),
			text.New("Estado: "+rc.Status, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 6,
			}),
			text.New("Abierto: "+rc.CreatedAt.Format(dateLayout)+closedSuffix(rc), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

func employeeRow(rc *usecase.LoanReceipt) core.Row {
	return row.New(14).Add(
		col.New(8).Add(
			text.New("EMPLEADO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(rc.EmployeeName, "(sin nombre)"), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
		),
		col.New(4).Add(
			text.New("ID: "+rc.EmployeeID, props.Text{Size: 7, Align: align.Right, Top: 2, Color: colorGray}),
			text.New("Abierto por: "+nonEmpty(rc.OpenedBy, "—"), props.Text{Size: 8, Align: align.Right, Top: 8, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("Tipo", 1, align.Center),
		h("Descripción", 6, align.Left),
		h("Cant.", 1, align.Center),
		h("Devuelto", 3, align.Right),
	)
}

func lineRows(lines []usecase.ReceiptLine) []core.Row {
	rows := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		returned := "pendiente"
		if l.ReturnedAt != nil {
			returned = l.ReturnedAt.Format(dateLayout)
		}
		rows = append(rows, row.New(7).Add(
			col.New(1).Add(text.New(strconv.Itoa(l.Position), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(l.Kind, props.Text{Size: 7, Align: align.Center, Top: 1})),
			col.New(6).Add(text.New(l.Description, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(1).Add(text.New(strconv.Itoa(l.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(3).Add(text.New(returned, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	if len(rows) == 0 {
		rows = append(rows, row.New(8).Add(col.New(12).Add(
			text.New("Sin líneas registradas", props.Text{Size: 8, Align: align.Center, Top: 2, Color: colorGray}),
		)))
	}
	return rows
}

func footerRow(rc *usecase.LoanReceipt) core.Row {
	return row.New(40).Add(
		col.New(8).Add(
			text.New("FIRMAS", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
			text.New("Retiro: "+nonEmpty(rc.PickupSignature, "sin firma"), props.Text{Size: 8, Top: 9, Color: colorGray}),
			text.New("Devolución: "+nonEmpty(rc.ReturnSignature, "sin firma"), props.Text{Size: 8, Top: 15, Color: colorGray}),
		),
		col.New(4).Add(code.NewQr(rc.LoanID, props.Rect{Percent: 90, Center: true})),
	)
}

func closedSuffix(rc *usecase.LoanReceipt) string {
	if rc.ClosedAt == nil {
		return ""
	}
	return "  ·  Cerrado: " + rc.ClosedAt.Format(dateLayout)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
