package transform

import (
	"context"
	"fmt"
)

// AddDependencies sets entries of the "dependencies" object of a
// package.json document, creating it when missing.
func AddDependencies(deps map[string]string) Transform {
	return JSON("add-dependencies", func(_ context.Context, v any) (any, error) {
		pkg, current, err := dependencies(v)
		if err != nil {
			return nil, err
		}
		for name, version := range deps {
			current[name] = version
		}
		pkg["dependencies"] = current
		return pkg, nil
	})
}

// DeleteDependencies removes entries from the "dependencies" object of a
// package.json document.
func DeleteDependencies(names ...string) Transform {
	return JSON("delete-dependencies", func(_ context.Context, v any) (any, error) {
		pkg, current, err := dependencies(v)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			delete(current, name)
		}
		pkg["dependencies"] = current
		return pkg, nil
	})
}

// dependencies returns shallow copies of the package object and of its
// dependencies object, so callers can edit them without touching v.
func dependencies(v any) (map[string]any, map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("package.json must be an object, got %T", v)
	}
	pkg := make(map[string]any, len(obj)+1)
	for k, val := range obj {
		pkg[k] = val
	}

	deps := make(map[string]any)
	switch current := obj["dependencies"].(type) {
	case nil:
	case map[string]any:
		for k, val := range current {
			deps[k] = val
		}
	default:
		return nil, nil, fmt.Errorf("package.json dependencies must be an object, got %T", current)
	}
	return pkg, deps, nil
}
