// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package config // import "newsfeed.app/internal/config"

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// Validator returns validator shared by env and YAML options. It reports
// fields by their env or yaml names.
func Validator() *validator.Validate {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)
	}
	return validate
}

func fieldName(fld reflect.StructField) string {
	tag := fld.Tag.Get("env")
	if tag == "" {
		tag = fld.Tag.Get("yaml")
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}
