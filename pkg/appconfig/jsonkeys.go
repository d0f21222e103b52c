package appconfig

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/function61/remoteimage/pkg/remotepattern"
)

// encoding/json matches keys case-insensitively, so `"PathName": ""` after `"pathname"` would
// silently turn a rule into "any path". this requires keys to match the json tags exactly.
func checkJsonKeyCase(content []byte) error {
	top := map[string]json.RawMessage{}
	if err := json.Unmarshal(content, &top); err != nil {
		return err
	}

	if err := exactKeys(top, reflect.TypeOf(Config{}), ""); err != nil {
		return err
	}

	imagesJson, found := top["images"]
	if !found {
		return nil
	}

	images := map[string]json.RawMessage{}
	if err := json.Unmarshal(imagesJson, &images); err != nil {
		return err
	}

	if err := exactKeys(images, reflect.TypeOf(Images{}), "images."); err != nil {
		return err
	}

	patternsJson, found := images["remotePatterns"]
	if !found {
		return nil
	}

	patterns := []map[string]json.RawMessage{}
	if err := json.Unmarshal(patternsJson, &patterns); err != nil {
		return err
	}

	for idx, pattern := range patterns {
		if err := exactKeys(pattern, reflect.TypeOf(remotepattern.AllowRule{}), fmt.Sprintf("images.remotePatterns[%d].", idx)); err != nil {
			return err
		}
	}

	return nil
}

func exactKeys(object map[string]json.RawMessage, typ reflect.Type, location string) error {
	known := map[string]bool{}
	for i := 0; i < typ.NumField(); i++ {
		name, _, _ := strings.Cut(typ.Field(i).Tag.Get("json"), ",")
		known[name] = true
	}

	for key := range object {
		if !known[key] {
			return fmt.Errorf("unknown field \"%s%s\" (field names are case-sensitive)", location, key)
		}
	}

	return nil
}
