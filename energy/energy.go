// Package energy turns complexity scores into mock energy figures.
// The numbers are illustrative only and do not measure real consumption.
package energy

import (
	"fmt"
	"strings"
)

// DefaultBase is the kWh attributed to a prompt of complexity 100 on a multiplier of 1.
const DefaultBase = 0.08

// Size is the target model size category.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

var multipliers = map[Size]float64{
	SizeSmall:  0.8,
	SizeMedium: 1.5,
	SizeLarge:  2.5,
}

var descriptions = map[Size]string{
	SizeSmall:  "Small (e.g., Llama 3 8B)",
	SizeMedium: "Medium (e.g., Gemini 1.5 Flash)",
	SizeLarge:  "Large (e.g., GPT-4o, Gemini 1.5 Pro)",
}

// Sizes lists the categories from smallest to largest.
func Sizes() []Size {
	return []Size{SizeSmall, SizeMedium, SizeLarge}
}

func ParseSize(s string) (Size, error) {
	size := Size(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := multipliers[size]; !ok {
		return "", fmt.Errorf("unknown model size %q: expected small, medium or large", s)
	}
	return size, nil
}

// Multiplier returns the fixed multiplier of a valid size and false otherwise.
func (s Size) Multiplier() (float64, bool) {
	m, ok := multipliers[s]
	return m, ok
}

func (s Size) Description() string {
	return descriptions[s]
}

// Estimate is (complexity/100) * base * multiplier.
func Estimate(complexity, multiplier, base float64) float64 {
	return (complexity / 100) * base * multiplier
}

// Comparison holds the energy figures of an original prompt and its replacement.
type Comparison struct {
	Size           Size    `json:"size"`
	Multiplier     float64 `json:"multiplier"`
	OriginalKWh    float64 `json:"originalKWh"`
	OptimizedKWh   float64 `json:"optimizedKWh"`
	SavingsKWh     float64 `json:"savingsKWh"`
	SavingsPercent float64 `json:"savingsPercent"`
}

// Calculator applies one base constant to every comparison.
type Calculator struct {
	Base float64
}

func NewCalculator(base float64) Calculator {
	if base <= 0 {
		base = DefaultBase
	}
	return Calculator{Base: base}
}

// Compare computes both energies with the same size multiplier. Savings may be
// negative when the replacement is more complex than the original.
func (c Calculator) Compare(originalComplexity, optimizedComplexity float64, size Size) (Comparison, error) {
	m, ok := size.Multiplier()
	if !ok {
		return Comparison{}, fmt.Errorf("unknown model size %q", size)
	}
	cmp := Comparison{
		Size:         size,
		Multiplier:   m,
		OriginalKWh:  Estimate(originalComplexity, m, c.Base),
		OptimizedKWh: Estimate(optimizedComplexity, m, c.Base),
	}
	cmp.SavingsKWh = cmp.OriginalKWh - cmp.OptimizedKWh
	if cmp.OriginalKWh != 0 {
		cmp.SavingsPercent = cmp.SavingsKWh / cmp.OriginalKWh * 100
	}
	return cmp, nil
}
