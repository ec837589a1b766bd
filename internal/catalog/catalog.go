package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

// Product is a purchasable item delivered as a license plus a file download.
type Product struct {
	SKU             string `json:"sku"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	PriceCents      int64  `json:"priceCents"`
	DeliverableFile string `json:"deliverableFile"`
}

// TicketCategory describes one kind of support ticket and the intake
// questions asked when it is opened.
type TicketCategory struct {
	Key       string   `json:"key"`
	Name      string   `json:"name"`
	Questions []string `json:"questions"`
	Quotable  bool     `json:"quotable"`
}

// Catalog is the static product and ticket-category configuration, loaded
// once at startup and immutable afterwards.
type Catalog struct {
	products   map[string]Product
	categories map[string]TicketCategory
}

type catalogFile struct {
	Products   []Product        `json:"products"`
	Categories []TicketCategory `json:"ticketCategories"`
}

// Load reads and validates the catalog JSON file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse validates raw catalog JSON.
func Parse(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		products:   make(map[string]Product, len(file.Products)),
		categories: make(map[string]TicketCategory, len(file.Categories)),
	}
	for _, p := range file.Products {
		if p.SKU == "" {
			return nil, fmt.Errorf("catalog: product %q missing sku", p.Name)
		}
		if p.PriceCents <= 0 {
			return nil, fmt.Errorf("catalog: product %q has non-positive price", p.SKU)
		}
		if _, dup := c.products[p.SKU]; dup {
			return nil, fmt.Errorf("catalog: duplicate sku %q", p.SKU)
		}
		c.products[p.SKU] = p
	}
	for _, cat := range file.Categories {
		if cat.Key == "" {
			return nil, fmt.Errorf("catalog: category %q missing key", cat.Name)
		}
		if _, dup := c.categories[cat.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate category %q", cat.Key)
		}
		c.categories[cat.Key] = cat
	}
	return c, nil
}

// Product looks up a product by SKU.
func (c *Catalog) Product(sku string) (Product, error) {
	p, ok := c.products[sku]
	if !ok {
		return Product{}, apperrors.NewNotFound(fmt.Sprintf("product %q", sku), nil)
	}
	return p, nil
}

// Category looks up a ticket category by key.
func (c *Catalog) Category(key string) (TicketCategory, error) {
	cat, ok := c.categories[key]
	if !ok {
		return TicketCategory{}, apperrors.NewNotFound(fmt.Sprintf("ticket category %q", key), nil)
	}
	return cat, nil
}

// Products returns all products ordered by SKU.
func (c *Catalog) Products() []Product {
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

// Categories returns all ticket categories ordered by key.
func (c *Catalog) Categories() []TicketCategory {
	out := make([]TicketCategory, 0, len(c.categories))
	for _, cat := range c.categories {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
