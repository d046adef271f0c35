package util

import (
	"encoding/json"
	"strings"
)

// removeFromArr the given filter
func removeFromArr(a []interface{}, filter string) []interface{} {
	var arr []interface{}
	ok := true
	for i := range a {
		switch cell := a[i].(type) {
		case map[string]interface{}:
			arr = append(arr, removeFromMap(cell, filter))
		default:
			ok = false
		}
	}
	if ok {
		return arr
	}
	return a
}

// removeFromMap the given filter where filter is in the form of key1.key2
func removeFromMap(m map[string]interface{}, filter string) map[string]interface{} {
	parts := strings.Split(filter, ".")
	if len(parts) == 1 {
		delete(m, parts[0])
		return m
	} else if len(parts) > 1 {
		if v, has := m[parts[0]]; has {
			switch v := v.(type) {
			case map[string]interface{}:
				m[parts[0]] = removeFromMap(v, strings.Join(parts[1:], "."))
			case []interface{}:
				m[parts[0]] = removeFromArr(v, strings.Join(parts[1:], "."))
			default:
				// Be lenient and ignore weird filters
			}
		}
	}
	return m
}

// ToGenericFilter translates an object to generic slices and maps while filtering the given fields
func ToGenericFilter(v interface{}, filters ...string) (interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return b, nil
	}
	var intermediate interface{}
	err = json.Unmarshal(b, &intermediate)
	if err != nil {
		return nil, err
	}
	switch intermediate := intermediate.(type) {
	case map[string]interface{}:
		for _, filter := range filters {
			intermediate = removeFromMap(intermediate, filter)
		}
	case []interface{}:
		for _, filter := range filters {
			intermediate = removeFromArr(intermediate, filter)
		}
	}
	return intermediate, nil
}

// MarshalWithFilter the given struct while filtering out the given Fields
// The filters should be in the form of x.y where x and y are the JSON names (as in the JSON tags)
// Naive and slow implementation - might be rewritten if needed
func MarshalWithFilter(v interface{}, filters ...string) ([]byte, error) {
	intermediate, err := ToGenericFilter(v, filters...)
	if err != nil {
		return nil, err
	}
	return json.Marshal(intermediate)
}
