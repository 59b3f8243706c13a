package surface

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/isaacw/deckcal/internal/present"
)

// Assets maps intensity tiers to the image files shown behind the current
// indicator. None always maps to no image.
type Assets struct {
	byIntensity map[present.Intensity]string
}

// DefaultAssets reproduces the stock image set shipped with the key faces.
func DefaultAssets() Assets {
	return Assets{byIntensity: map[present.Intensity]string{
		present.IntensityLow:      "imgs/Pure Blue Violet.jpg",
		present.IntensityMedium:   "imgs/Pure Blue.jpg",
		present.IntensityHigh:     "imgs/Pure Yellow Orange.jpg",
		present.IntensityCritical: "imgs/Reddit.jpg",
	}}
}

// LoadAssets reads an intensity→image table from an INI key file:
//
//	[images]
//	low      = imgs/calm.png
//	critical = imgs/alarm.png
//
// A missing file yields the defaults; unnamed tiers keep their default.
func LoadAssets(path string) (Assets, error) {
	assets := DefaultAssets()
	if strings.TrimSpace(path) == "" {
		return assets, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return assets, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return Assets{}, fmt.Errorf("load assets file %s: %w", path, err)
	}

	section := file.Section("images")
	for key, intensity := range map[string]present.Intensity{
		"low":      present.IntensityLow,
		"medium":   present.IntensityMedium,
		"high":     present.IntensityHigh,
		"critical": present.IntensityCritical,
	} {
		if value := strings.TrimSpace(section.Key(key).String()); value != "" {
			assets.byIntensity[intensity] = value
		}
	}
	return assets, nil
}

// For resolves the asset path for an intensity tier; "" means no image.
func (a Assets) For(intensity present.Intensity) string {
	if a.byIntensity == nil {
		return ""
	}
	return a.byIntensity[intensity]
}
