package utils

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// AttributeMap is a map of raw configuration attributes, as decoded from JSON.
type AttributeMap map[string]interface{}

// Has returns whether the given attribute exists.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}

// ConfigValidator validates a configuration and also returns dependencies that were implicitly
// discovered.
type ConfigValidator interface {
	Validate(path string) ([]string, error)
}

// TransformAttributeMap uses an attribute map to transform attributes to the prescribed format.
// Attributes are matched to struct fields by their `json` tag; unknown attributes are an error.
func TransformAttributeMap[T any](attributes AttributeMap) (T, error) {
	var out T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out, err
	}
	input := map[string]interface{}(attributes)
	if input == nil {
		input = map[string]interface{}{}
	}
	if err := decoder.Decode(input); err != nil {
		return out, errors.Wrap(err, "cannot decode attributes")
	}
	return out, nil
}
