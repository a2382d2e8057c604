package helpers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/thedevsaddam/govalidator"
)

func init() {
	govalidator.AddCustomRule("not_blank", func(field string, rule string, message string, value interface{}) error {
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.String && strings.TrimSpace(rv.String()) == "" {
			if message != "" {
				return errors.New(message)
			}
			return fmt.Errorf("The %s field must not be blank", field)
		}
		return nil
	})
}
