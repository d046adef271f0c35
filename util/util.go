package util

import "reflect"

// ToIntf converts a slice or array of a specific type to array of interface{}
func ToIntf(s interface{}) []interface{} {
	v := reflect.ValueOf(s)
	// There is no need to check, we want to panic if it's not slice or array
	intf := make([]interface{}, v.Len())
	for i := 0; i < v.Len(); i++ {
		intf[i] = v.Index(i).Interface()
	}
	return intf
}

// In checks if val is in s slice
func In(slice interface{}, val interface{}) bool {
	si := ToIntf(slice)
	for _, v := range si {
		if v == val {
			return true
		}
	}
	return false
}

// IndexOf returns the index of an object in an array based on obj1 == obj2
func IndexOf(slice interface{}, val interface{}) int {
	si := ToIntf(slice)
	for p, v := range si {
		if v == val {
			return p
		}
	}
	return -1
}
