package knuffimap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl"
	"github.com/magiconair/properties"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

var ErrUnsupportedConfigType = errors.New("unsupported config type")

// JSONDeserializer decodes raw values holding JSON text. Structured raw
// values such as map[string]interface{} are re-encoded first.
func JSONDeserializer[T any]() Deserializer[T] {
	return newDeserializer[T]("json", json.Marshal, json.Unmarshal)
}

func YAMLDeserializer[T any]() Deserializer[T] {
	return newDeserializer[T]("yaml", yaml.Marshal, yaml.Unmarshal)
}

func TOMLDeserializer[T any]() Deserializer[T] {
	return newDeserializer[T]("toml", toml.Marshal, toml.Unmarshal)
}

// HCLDeserializer decodes HCL text. hcl reads JSON as well, so structured raw
// values are encoded as JSON.
func HCLDeserializer[T any]() Deserializer[T] {
	return newDeserializer[T]("hcl", json.Marshal, hcl.Unmarshal)
}

// PropertiesDeserializer decodes java properties text into T, which must be
// a struct. Fields are matched with the `properties` struct tag.
func PropertiesDeserializer[T any]() Deserializer[T] {
	return newDeserializer[T]("properties", marshalProperties, func(data []byte, v interface{}) error {
		p, err := properties.Load(data, properties.UTF8)
		if err != nil {
			return err
		}
		return p.Decode(v)
	})
}

// DeserializerFor picks a deserializer by the format of an Apollo namespace,
// e.g. the extension of "datasources.json".
func DeserializerFor[T any](configType string) (Deserializer[T], error) {
	switch strings.ToLower(strings.TrimPrefix(configType, ".")) {
	case "json":
		return JSONDeserializer[T](), nil
	case "yaml", "yml":
		return YAMLDeserializer[T](), nil
	case "toml":
		return TOMLDeserializer[T](), nil
	case "hcl":
		return HCLDeserializer[T](), nil
	case "properties", "props", "prop":
		return PropertiesDeserializer[T](), nil
	default:
		return nil, errors.Wrap(ErrUnsupportedConfigType, configType)
	}
}

func newDeserializer[T any](
	name string,
	marshal func(interface{}) ([]byte, error),
	unmarshal func([]byte, interface{}) error,
) Deserializer[T] {
	return func(raw interface{}) (T, error) {
		var v T

		var data []byte
		switch r := raw.(type) {
		case nil:
			return v, errors.Errorf("%s: nil raw value", name)
		case string:
			data = []byte(r)
		case []byte:
			data = r
		default:
			var err error
			data, err = marshal(r)
			if err != nil {
				return v, errors.Wrapf(err, "%s: encode %T", name, raw)
			}
		}

		if err := unmarshal(data, &v); err != nil {
			return v, errors.Wrap(err, name)
		}
		return v, nil
	}
}

func marshalProperties(raw interface{}) ([]byte, error) {
	c, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("cannot encode %T as properties", raw)
	}

	p := properties.NewProperties()
	for key, val := range c {
		_, _, err := p.Set(key, fmt.Sprint(val))
		if err != nil {
			return nil, err
		}
	}
	buff := bytes.NewBuffer(nil)
	_, err := p.Write(buff, properties.UTF8)
	if err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}
