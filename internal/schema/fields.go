package schema

import (
	"reflect"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Field describes one declared attribute of a model.
type Field struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Array    bool     `json:"array,omitempty"`
	Required bool     `json:"required,omitempty"`
	Default  string   `json:"default,omitempty"`
	Enum     []string `json:"enum,omitempty"`
}

var (
	timeType        = reflect.TypeOf(time.Time{})
	stringSliceType = reflect.TypeOf(datatypes.JSONSlice[string]{})
)

// describeFields reads the declaration tags (json, validate, gorm) of a struct type.
func describeFields(t reflect.Type) []Field {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous {
			fields = append(fields, describeFields(sf.Type)...)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		name := jsonName(sf)
		if name == "" {
			continue
		}

		rules := tagRules(sf.Tag.Get("validate"))
		f := Field{Name: name}
		_, f.Required = rules["required"]
		f.Default = gormSetting(sf.Tag.Get("gorm"), "default")

		ft := sf.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		switch {
		case ft == timeType:
			f.Type = "datetime"
		case ft == stringSliceType:
			f.Type = "string"
			f.Array = true
		case ft.Kind() == reflect.Bool:
			f.Type = "boolean"
		case ft.Kind() == reflect.Float32 || ft.Kind() == reflect.Float64:
			f.Type = "float"
		case ft.Kind() >= reflect.Int && ft.Kind() <= reflect.Int64:
			f.Type = "integer"
		case ft.Kind() == reflect.String:
			f.Type = stringKind(name, rules)
			if oneof, ok := rules["oneof"]; ok {
				f.Enum = strings.Fields(oneof)
			}
		default:
			f.Type = "json"
		}
		fields = append(fields, f)
	}
	return fields
}

func stringKind(name string, rules map[string]string) string {
	if _, ok := rules["oneof"]; ok {
		return "enum"
	}
	if _, ok := rules["email"]; ok {
		return "email"
	}
	if _, ok := rules["url"]; ok {
		return "url"
	}
	if name == "id" || strings.HasSuffix(name, "Id") || name == "owner" {
		return "id"
	}
	return "string"
}

func jsonName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name := strings.SplitN(tag, ",", 2)[0]
	if name == "" {
		return sf.Name
	}
	return name
}

// tagRules splits a validate tag into rule -> parameter.
func tagRules(tag string) map[string]string {
	rules := make(map[string]string)
	for _, part := range strings.Split(tag, ",") {
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 {
			rules[kv[0]] = kv[1]
		} else {
			rules[kv[0]] = ""
		}
	}
	return rules
}

func gormSetting(tag, key string) string {
	for _, part := range strings.Split(tag, ";") {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) == 2 && strings.EqualFold(strings.TrimSpace(kv[0]), key) {
			return kv[1]
		}
	}
	return ""
}
