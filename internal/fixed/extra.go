package fixed

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/hirudo/hirudo-etl/internal/model"
)

// LoadExtraPoints reads centers that are not part of the hospital listing from a YAML file with a
// top-level "extra_points" list. Every point needs a name and a coordinate.
func LoadExtraPoints(path string) ([]model.FixedPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fixed: read extra points %s", path)
	}

	var wrapper struct {
		ExtraPoints []model.FixedPoint `yaml:"extra_points"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrapf(err, "fixed: parse extra points %s", path)
	}

	for i, p := range wrapper.ExtraPoints {
		if p.Name == "" {
			return nil, eris.Errorf("fixed: extra point %d has no nombre", i)
		}
		if p.Latitude == 0 && p.Longitude == 0 {
			return nil, eris.Errorf("fixed: extra point %q has no coordinate", p.Name)
		}
	}
	return wrapper.ExtraPoints, nil
}
