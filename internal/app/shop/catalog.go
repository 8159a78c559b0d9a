package shop

//go:generate mockgen -source=catalog.go -destination=shopmock/mock_catalog.go -package=shopmock

import (
	"context"
	"fmt"
	"sort"

	"blackjack-casino/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Item struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// Catalog is the item source purchases are priced against.
type Catalog interface {
	Get(ctx context.Context, id string) (Item, error)
	List(ctx context.Context) ([]Item, error)
}

type StaticCatalog struct {
	items map[string]Item
}

func NewStaticCatalog(items ...Item) *StaticCatalog {
	c := &StaticCatalog{items: make(map[string]Item, len(items))}
	for _, it := range items {
		c.items[it.ID] = it
	}
	return c
}

func DefaultCatalog() *StaticCatalog {
	return NewStaticCatalog(
		Item{ID: "valid-item-001", Name: "Lucky Chip", Category: "cosmetic", Price: decimal.NewFromInt(10)},
		Item{ID: "card-back-gold", Name: "Gold Card Back", Category: "cosmetic", Price: decimal.NewFromInt(50)},
		Item{ID: "table-felt-blue", Name: "Blue Table Felt", Category: "cosmetic", Price: decimal.NewFromInt(75)},
		Item{ID: "avatar-high-roller", Name: "High Roller Avatar", Category: "avatar", Price: decimal.NewFromInt(250)},
	)
}

func (c *StaticCatalog) Get(_ context.Context, id string) (Item, error) {
	it, ok := c.items[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return it, nil
}

func (c *StaticCatalog) List(_ context.Context) ([]Item, error) {
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fileItem struct {
	ID          string `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Category    string `mapstructure:"category"`
	Price       string `mapstructure:"price"`
}

// LoadCatalog reads a catalog file (YAML, JSON or TOML by extension) with a
// top-level items list.
func LoadCatalog(path string) (*StaticCatalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	var raw struct {
		Items []fileItem `mapstructure:"items"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("unmarshaling catalog: %w", err)
	}
	items := make([]Item, 0, len(raw.Items))
	seen := map[string]bool{}
	for _, fi := range raw.Items {
		if fi.ID == "" {
			return nil, fmt.Errorf("catalog item without id")
		}
		if seen[fi.ID] {
			return nil, fmt.Errorf("duplicate catalog item %q", fi.ID)
		}
		seen[fi.ID] = true
		price, err := decimal.NewFromString(fi.Price)
		if err != nil || !price.IsPositive() || !ledger.InScale(price) {
			return nil, fmt.Errorf("catalog item %q: invalid price %q", fi.ID, fi.Price)
		}
		items = append(items, Item{
			ID:          fi.ID,
			Name:        fi.Name,
			Description: fi.Description,
			Category:    fi.Category,
			Price:       price,
		})
	}
	return NewStaticCatalog(items...), nil
}
