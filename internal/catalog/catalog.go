// Package catalog holds the asset identifiers a pet can wear. The engine never
// opens these assets; it only picks from and swaps between them.
package catalog

import (
	"fmt"
	"strings"
)

// Catalog lists image and background identifiers.
//
// Normal and Transformed are parallel: Transformed[i] is the transformed look
// of Normal[i].
type Catalog struct {
	Normal      []string `yaml:"normal_gremlin_images"`
	Transformed []string `yaml:"transformed_gremlin_images"`
	Backgrounds []string `yaml:"room_backgrounds"`
}

// Picker draws a uniform index in [0, n).
type Picker interface {
	IntN(n int) int
}

// Validate enforces non-empty catalogs and the parallel-array invariant.
func (c Catalog) Validate() error {
	if len(c.Normal) == 0 {
		return fmt.Errorf("catalog: no normal images configured")
	}
	if len(c.Backgrounds) == 0 {
		return fmt.Errorf("catalog: no room backgrounds configured")
	}
	if len(c.Transformed) != len(c.Normal) {
		return fmt.Errorf("catalog: %d transformed images for %d normal images, lists must be parallel",
			len(c.Transformed), len(c.Normal))
	}
	for name, list := range map[string][]string{
		"normal":      c.Normal,
		"transformed": c.Transformed,
		"background":  c.Backgrounds,
	} {
		for i, ref := range list {
			if strings.TrimSpace(ref) == "" {
				return fmt.Errorf("catalog: empty %s entry at index %d", name, i)
			}
		}
	}
	return nil
}

// TransformedFor returns the transformed counterpart of a normal image.
// ok is false when image is not in the normal catalog.
func (c Catalog) TransformedFor(image string) (string, bool) {
	for i, ref := range c.Normal {
		if ref == image && i < len(c.Transformed) {
			return c.Transformed[i], true
		}
	}
	return "", false
}

// RandomNormal picks a normal image uniformly.
func (c Catalog) RandomNormal(p Picker) string {
	return pick(c.Normal, p)
}

// RandomBackground picks a room background uniformly.
func (c Catalog) RandomBackground(p Picker) string {
	return pick(c.Backgrounds, p)
}

func pick(list []string, p Picker) string {
	if len(list) == 0 {
		return ""
	}
	return list[p.IntN(len(list))]
}
