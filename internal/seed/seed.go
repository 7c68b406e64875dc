// Package seed loads demo data from a YAML file into an empty database by
// going through the same services the HTTP API uses.
package seed

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type File struct {
	Collections []Collection `yaml:"collections"`
	Promotions  []Promotion  `yaml:"promotions"`
	Products    []Product    `yaml:"products"`
	Accounts    []Account    `yaml:"accounts"`
}

type Collection struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
}

type Promotion struct {
	Description string  `yaml:"description"`
	Discount    float64 `yaml:"discount"`
}

// Product refers to its collection by title and to promotions by
// description.
type Product struct {
	Name        string          `yaml:"name"`
	Slug        string          `yaml:"slug"`
	Description string          `yaml:"description"`
	UnitPrice   decimal.Decimal `yaml:"unit_price"`
	Inventory   int             `yaml:"inventory"`
	Collection  string          `yaml:"collection"`
	Promotions  []string        `yaml:"promotions"`
	Tags        []string        `yaml:"tags"`
	Featured    bool            `yaml:"featured"`
}

type Account struct {
	Username   string            `yaml:"username"`
	Email      string            `yaml:"email"`
	Password   string            `yaml:"password"`
	FirstName  string            `yaml:"first_name"`
	LastName   string            `yaml:"last_name"`
	Staff      bool              `yaml:"staff"`
	Membership domain.Membership `yaml:"membership"`
	Tags       []string          `yaml:"tags"`
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes data, rejecting unknown keys, and checks that every
// reference between entries resolves.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	var errs []error

	collections := make(map[string]bool, len(f.Collections))
	for _, c := range f.Collections {
		if collections[c.Title] {
			errs = append(errs, fmt.Errorf("collection %q declared twice", c.Title))
		}
		collections[c.Title] = true
	}

	promotions := make(map[string]bool, len(f.Promotions))
	for _, p := range f.Promotions {
		if promotions[p.Description] {
			errs = append(errs, fmt.Errorf("promotion %q declared twice", p.Description))
		}
		promotions[p.Description] = true
	}

	featured := map[string]string{}
	for _, p := range f.Products {
		if !collections[p.Collection] {
			errs = append(errs, fmt.Errorf("product %q: unknown collection %q", p.Name, p.Collection))
		}
		for _, promo := range p.Promotions {
			if !promotions[promo] {
				errs = append(errs, fmt.Errorf("product %q: unknown promotion %q", p.Name, promo))
			}
		}
		if p.Featured {
			if prev, ok := featured[p.Collection]; ok {
				errs = append(errs, fmt.Errorf("collection %q features both %q and %q", p.Collection, prev, p.Name))
			}
			featured[p.Collection] = p.Name
		}
	}

	for _, a := range f.Accounts {
		if a.Membership != "" && !a.Membership.Valid() {
			errs = append(errs, fmt.Errorf("account %q: invalid membership %q", a.Username, a.Membership))
		}
	}

	return errors.Join(errs...)
}
