package order

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// EncodeItems serialises the line-item snapshot stored with an order.
func EncodeItems(items []LineItem) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		if it.ProductID != 0 {
			e.FieldStart("product_id")
			e.Int64(it.ProductID)
		}
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		e.Num(jx.Num(it.Price.String()))
		e.FieldStart("qty")
		e.Int(it.Quantity)
		if it.Note != "" {
			e.FieldStart("note")
			e.Str(it.Note)
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

// DecodeItems parses a snapshot produced by EncodeItems. Unknown fields are
// skipped; a JSON null decodes to no items.
func DecodeItems(data []byte) ([]LineItem, error) {
	d := jx.DecodeBytes(data)
	if d.Next() == jx.Null {
		return nil, d.Null()
	}

	var items []LineItem
	err := d.Arr(func(d *jx.Decoder) error {
		var it LineItem
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "product_id":
				v, err := d.Int64()
				it.ProductID = v
				return err
			case "name":
				v, err := d.Str()
				it.Name = v
				return err
			case "price":
				n, err := d.Num()
				if err != nil {
					return err
				}
				p, err := decimal.NewFromString(strings.Trim(n.String(), `"`))
				if err != nil {
					return errors.Wrap(err, "parse price")
				}
				it.Price = p
				return nil
			case "qty":
				v, err := d.Int()
				it.Quantity = v
				return err
			case "note":
				v, err := d.Str()
				it.Note = v
				return err
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode items")
	}
	return items, nil
}
