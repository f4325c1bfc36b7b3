// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// FlagBinder is implemented by parameter types that register their own
// flags, typically because a flag needs pflag features a struct tag
// cannot express (NoOptDefVal, hidden flags).
type FlagBinder interface {
	AddFlags(flagSet *pflag.FlagSet)
}

// FlagsFromParams returns a FlagSet bound to params, a pointer to a
// struct. A malformed params struct is a programming error and panics.
func FlagsFromParams(name string, params any) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.SortFlags = false
	if err := BindFlags(params, flagSet); err != nil {
		panic(fmt.Sprintf("cli.FlagsFromParams(%q): %v", name, err))
	}
	return flagSet
}

// BindFlags registers a flag for each tagged field of params.
//
//	Language string `flag:"lang,l" desc:"source language" default:"auto"`
//
// The flag tag holds the long name and an optional one-letter
// shorthand; desc is the usage text; default is parsed as the field's
// type. Supported types are string, bool, int, [time.Duration] and
// []string (comma-separated default). A params type or field
// implementing [FlagBinder] binds itself, other embedded structs are
// walked.
func BindFlags(params any, flagSet *pflag.FlagSet) error {
	if binder, ok := params.(FlagBinder); ok {
		binder.AddFlags(flagSet)
		return nil
	}
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Pointer || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	return bindStruct(value.Elem(), flagSet)
}

func bindStruct(value reflect.Value, flagSet *pflag.FlagSet) error {
	for i := range value.NumField() {
		field := value.Type().Field(i)
		if !field.IsExported() {
			continue
		}
		target := value.Field(i).Addr().Interface()

		if binder, ok := target.(FlagBinder); ok && field.Type.Kind() == reflect.Struct {
			binder.AddFlags(flagSet)
			continue
		}
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := bindStruct(value.Field(i), flagSet); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}

		tag, tagged := field.Tag.Lookup("flag")
		if !tagged || tag == "" {
			continue
		}
		declared := flagSpec{usage: field.Tag.Get("desc"), fallback: field.Tag.Get("default")}
		declared.name, declared.short, _ = strings.Cut(tag, ",")
		if err := declared.bind(flagSet, target); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}
	return nil
}

// flagSpec is one flag as described by a field's tags.
type flagSpec struct {
	name, short, usage, fallback string
}

func (s flagSpec) bind(flagSet *pflag.FlagSet, target any) error {
	switch target := target.(type) {
	case *string:
		flagSet.StringVarP(target, s.name, s.short, s.fallback, s.usage)
	case *bool:
		value, err := parseDefault(s, strconv.ParseBool)
		if err != nil {
			return err
		}
		flagSet.BoolVarP(target, s.name, s.short, value, s.usage)
	case *int:
		value, err := parseDefault(s, strconv.Atoi)
		if err != nil {
			return err
		}
		flagSet.IntVarP(target, s.name, s.short, value, s.usage)
	case *time.Duration:
		value, err := parseDefault(s, time.ParseDuration)
		if err != nil {
			return err
		}
		flagSet.DurationVarP(target, s.name, s.short, value, s.usage)
	case *[]string:
		var value []string
		if s.fallback != "" {
			value = strings.Split(s.fallback, ",")
		}
		flagSet.StringSliceVarP(target, s.name, s.short, value, s.usage)
	default:
		return fmt.Errorf("unsupported type %T for flag --%s", target, s.name)
	}
	return nil
}

// parseDefault parses the default tag, returning the zero value when
// there is none.
func parseDefault[T any](s flagSpec, parse func(string) (T, error)) (T, error) {
	var zero T
	if s.fallback == "" {
		return zero, nil
	}
	value, err := parse(s.fallback)
	if err != nil {
		return zero, fmt.Errorf("default for --%s: %w", s.name, err)
	}
	return value, nil
}
