package setting

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ovaphlow/pitchfork/service-award-go/internal/setting/entity"
)

// Load starts from the defaults, overlays the YAML file at path (a missing file
// is not an error) and finally AWARD_SECRET from the environment.
func Load(path string) (entity.Params, error) {
	p := entity.DefaultParams()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return p, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, &p); err != nil {
				return p, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if v := os.Getenv("AWARD_SECRET"); v != "" {
		p.Secret = v
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return p, nil
}
