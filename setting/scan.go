package setting

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Scan decodes the subtree under basePath into the target struct or map.
// The target must be a non-nil pointer. Field mapping uses the "setting"
// struct tag, falling back on field names. An empty basePath scans the whole
// tree; a basePath that does not exist decodes an empty map, leaving the
// target's zero values in place.
func (s *Setting) Scan(basePath string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("scan target must be a non-nil pointer, got %T", target)
	}

	var section map[string]any
	basePath = strings.TrimSuffix(basePath, ".")
	if basePath == "" {
		section = s.Map()
	} else {
		node, ok := s.Section(basePath)
		if ok {
			section = node.Map()
		} else if _, isLeaf := s.GetPath(basePath); isLeaf {
			return fmt.Errorf("path %q: %w", basePath, ErrNotASection)
		} else {
			section = make(map[string]any)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "setting",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(section); err != nil {
		return fmt.Errorf("failed to scan section %q into %T: %w", basePath, target, err)
	}

	return nil
}
