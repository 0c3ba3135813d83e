package tips

import (
	"fmt"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"
)

// Tip is one coaching message.
type Tip struct {
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

// Catalog is a pool of coaching tips to pick from.
type Catalog struct {
	Tips []Tip `yaml:"tips"`
}

// Default returns the built-in tip catalog.
func Default() *Catalog {
	return &Catalog{Tips: []Tip{
		{
			Title: "Weekly Tip: The 50/30/20 Rule",
			Body:  "Try allocating 50% for needs, 30% for wants, and 20% for savings. This simple rule can transform your budget!",
		},
		{
			Title: "Save on Groceries",
			Body:  "Planning meals for the week? Make a shopping list and stick to it. You could save 20% on your grocery bill!",
		},
		{
			Title: "Track Your Progress",
			Body:  "You've been doing great! Check your spending trends and see how much you've improved this month.",
		},
		{
			Title: "Emergency Fund Goal",
			Body:  "Aim to save $1,000 for emergencies first. Even $25 per week gets you there in less than a year!",
		},
	}}
}

// LoadCatalog reads a YAML tip catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tips file %s: %w", path, err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse tips file %s: %w", path, err)
	}

	if len(c.Tips) == 0 {
		return nil, fmt.Errorf("tips file %s: no tips defined", path)
	}
	for i, tip := range c.Tips {
		if tip.Title == "" || tip.Body == "" {
			return nil, fmt.Errorf("tips file %s: tip %d missing title or body", path, i)
		}
	}

	return &c, nil
}

// Pick returns a random tip from the catalog. If rnd is nil the
// package-level source is used.
func (c *Catalog) Pick(rnd *rand.Rand) Tip {
	if len(c.Tips) == 1 {
		return c.Tips[0]
	}
	if rnd == nil {
		return c.Tips[rand.IntN(len(c.Tips))]
	}
	return c.Tips[rnd.IntN(len(c.Tips))]
}
