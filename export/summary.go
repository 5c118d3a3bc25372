package export

import "github.com/meigma/region/codec"

// Item is a summarized item stack inside a container.
type Item struct {
	// Name is the best available identifier for the item. "unknown" when
	// no recognizable name field is present.
	Name string `json:"name"`

	Amount int `json:"amount"`

	// Data is the item's full payload for document-shaped stacks.
	Data *codec.Document `json:"data,omitempty"`
}

// Field names observed across item payload revisions, in preference order.
var (
	itemNameFields   = []string{"item", "name", "type"}
	itemAmountFields = []string{"amount", "count"}
)

func summarizeItems(items []codec.Value) []Item {
	out := make([]Item, 0, len(items))
	for _, v := range items {
		out = append(out, summarizeItem(v))
	}
	return out
}

func summarizeItem(v codec.Value) Item {
	if s, err := codec.AsString(v); err == nil {
		return Item{Name: s, Amount: 1}
	}
	doc, err := codec.AsDocument(v)
	if err != nil {
		return Item{Name: "unknown", Amount: 1}
	}

	it := Item{Name: "unknown", Amount: 1, Data: doc}
	for _, name := range itemNameFields {
		if s, err := codec.AsString(field(doc, name)); err == nil && s != "" {
			it.Name = s
			break
		}
	}
	for _, name := range itemAmountFields {
		if n, err := codec.AsInt(field(doc, name)); err == nil {
			it.Amount = int(n)
			break
		}
	}
	return it
}

func field(doc *codec.Document, name string) codec.Value {
	v, _ := doc.Get(name)
	return v
}
