package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/fx"
)

// ReceiptData carries everything an order receipt shows.
type ReceiptData struct {
	Reference      string
	ProductName    string
	Amount         string
	BuyerUsername  string
	SellerUsername string
	OrderStatus    string
	Date           string
}

type ReceiptRenderer interface {
	RenderOrderReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
}

type MarotoRenderer struct{}

func New() ReceiptRenderer {
	return &MarotoRenderer{}
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

func (r *MarotoRenderer) RenderOrderReceipt(ctx context.Context, data ReceiptData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(12, "Order receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Reference: "+data.Reference, props.Text{Top: 0}),
			text.New("Date: "+data.Date, props.Text{Top: 5}),
			text.New("Status: "+data.OrderStatus, props.Text{Top: 10}),
		),
		col.New(6),
	)

	m.AddRow(25,
		col.New(6).Add(
			text.New("Buyer", props.Text{Style: fontstyle.Bold}),
			text.New(data.BuyerUsername, props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New("Seller", props.Text{Style: fontstyle.Bold}),
			text.New(data.SellerUsername, props.Text{Top: 5}),
		),
	)

	m.AddRow(10,
		text.NewCol(8, "Item", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(15,
		text.NewCol(8, data.ProductName, props.Text{Size: 9}),
		text.NewCol(4, data.Amount, props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(15,
		col.New(8),
		text.NewCol(4, fmt.Sprintf("Total %s", data.Amount), props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
