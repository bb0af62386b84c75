package form

import (
	"errors"
	"net/http"
	"reflect"
)

// ClassifyStatus extracts an HTTP-like status code from err or anything it
// wraps. It understands StatusCode() int, Response() *http.Response,
// HTTPStatus() int, and exported StatusCode, Status or Response fields.
// It returns zero when no status is found.
func ClassifyStatus(err error) int {
	for err != nil {
		if code := statusOf(err); code != 0 {
			return code
		}
		err = errors.Unwrap(err)
	}
	return 0
}

func statusOf(err error) int {
	switch e := err.(type) {
	case interface{ StatusCode() int }:
		return e.StatusCode()
	case interface{ Response() *http.Response }:
		if resp := e.Response(); resp != nil {
			return resp.StatusCode
		}
		return 0
	case interface{ HTTPStatus() int }:
		return e.HTTPStatus()
	}

	v := reflect.ValueOf(err)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return 0
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return 0
	}

	if f := v.FieldByName("Response"); f.IsValid() && f.CanInterface() {
		if resp, ok := f.Interface().(*http.Response); ok && resp != nil {
			return resp.StatusCode
		}
	}
	for _, name := range []string{"StatusCode", "Status"} {
		f := v.FieldByName(name)
		if !f.IsValid() || !f.CanInterface() {
			continue
		}
		switch f.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return int(f.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return int(f.Uint())
		}
	}
	return 0
}
