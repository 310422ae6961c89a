package assemble

import (
	"reflect"

	"github.com/emosbaugh/yaml"
	"github.com/mbutane/mbutane/pkg/document"
	"github.com/pkg/errors"
)

// normalizeStorage deduplicates the merged document's storage lists by
// path. Identical re-declarations collapse to one. Conflicting directory or
// link re-declarations are an error. Duplicate file declarations merge
// their append lists onto the first declaration, provided the later one
// does not redeclare contents and all other fields agree.
func normalizeStorage(doc document.Document) error {
	root, ok := doc.MapSlice()
	if !ok {
		return nil
	}
	storageValue, ok := document.GetValue(root, "storage")
	if !ok {
		return nil
	}
	storage, ok := storageValue.(yaml.MapSlice)
	if !ok {
		return nil
	}

	for i, item := range storage {
		list, ok := item.Value.([]interface{})
		if !ok {
			continue
		}
		switch item.Key {
		case "directories", "links":
			unique, err := uniquePaths(list)
			if err != nil {
				return err
			}
			storage[i].Value = unique
		case "files":
			unique, err := uniqueFiles(list)
			if err != nil {
				return err
			}
			storage[i].Value = unique
		}
	}
	return nil
}

func uniquePaths(list []interface{}) ([]interface{}, error) {
	known := map[string]yaml.MapSlice{}
	unique := make([]interface{}, 0, len(list))

	for _, elem := range list {
		item, p, err := pathOf(elem)
		if err != nil {
			return nil, err
		}
		first, seen := known[p]
		if !seen {
			known[p] = item
			unique = append(unique, item)
			continue
		}
		if !reflect.DeepEqual(item, first) {
			return nil, &ConfigError{Path: p, Err: errors.New("conflicting duplicate path declaration")}
		}
	}
	return unique, nil
}

func uniqueFiles(list []interface{}) ([]interface{}, error) {
	known := map[string]int{}
	unique := make([]interface{}, 0, len(list))

	for _, elem := range list {
		item, p, err := pathOf(elem)
		if err != nil {
			return nil, err
		}
		firstIdx, seen := known[p]
		if !seen {
			known[p] = len(unique)
			unique = append(unique, item)
			continue
		}

		first := unique[firstIdx].(yaml.MapSlice)
		if reflect.DeepEqual(item, first) {
			continue
		}
		if _, ok := document.GetValue(item, "contents"); ok {
			return nil, &ConfigError{Path: p, Err: errors.New("cannot overwrite already declared file")}
		}

		appendContents, _ := document.GetValue(item, "append")
		if !reflect.DeepEqual(withoutKeys(item, "contents", "append"), withoutKeys(first, "contents", "append")) {
			return nil, &ConfigError{Path: p, Err: errors.New("unable to merge duplicate file declaration")}
		}

		if appendContents != nil {
			newAppend, ok := appendContents.([]interface{})
			if !ok {
				return nil, &ConfigError{Path: p, Err: errors.New("append must be a sequence")}
			}
			if existing, ok := document.GetValue(first, "append"); ok {
				existingAppend, ok := existing.([]interface{})
				if !ok {
					return nil, &ConfigError{Path: p, Err: errors.New("append must be a sequence")}
				}
				unique[firstIdx] = document.SetValue(first, "append", append(existingAppend, newAppend...))
			} else {
				unique[firstIdx] = document.SetValue(first, "append", newAppend)
			}
		}
	}
	return unique, nil
}

func pathOf(elem interface{}) (yaml.MapSlice, string, error) {
	item, ok := elem.(yaml.MapSlice)
	if !ok {
		return nil, "", &ConfigError{Path: "storage", Err: errors.New("storage entries must be mappings")}
	}
	p, ok := document.GetValue(item, "path")
	if !ok {
		return nil, "", &ConfigError{Path: "storage", Err: errors.New("storage entry without a path")}
	}
	s, ok := p.(string)
	if !ok {
		return nil, "", &ConfigError{Path: "storage", Err: errors.New("storage entry path must be a string")}
	}
	return item, s, nil
}

// withoutKeys copies a mapping minus the named keys, for field-agreement
// comparison of duplicate declarations.
func withoutKeys(m yaml.MapSlice, keys ...string) yaml.MapSlice {
	out := make(yaml.MapSlice, 0, len(m))
	for _, item := range m {
		skip := false
		for _, k := range keys {
			if item.Key == k {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, item)
		}
	}
	return out
}
