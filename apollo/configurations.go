package apollo

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/shima-park/knuffimap"
)

// Configurations is the key/value content of a namespace release.
type Configurations map[string]interface{}

// Different lists the child events turning old into new, ordered by key.
func (old Configurations) Different(new Configurations) []knuffimap.ChildEvent {
	var events []knuffimap.ChildEvent
	for k, newValue := range new {
		oldValue, found := old[k]
		switch {
		case !found:
			events = append(events, knuffimap.ChildEvent{Type: knuffimap.ChildAdded, Key: k, Value: newValue})
		case !reflect.DeepEqual(oldValue, newValue):
			events = append(events, knuffimap.ChildEvent{Type: knuffimap.ChildChanged, Key: k, Value: newValue})
		}
	}

	for k, oldValue := range old {
		if _, found := new[k]; !found {
			events = append(events, knuffimap.ChildEvent{Type: knuffimap.ChildRemoved, Key: k, Value: oldValue})
		}
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Key < events[j].Key
	})
	return events
}

// contentKey holds the document of non properties namespaces.
const contentKey = "content"

// children returns the children a namespace release exposes. Properties
// namespaces expose their keys; json and yaml namespaces expose the top
// level keys of their document.
func children(configType string, conf Configurations) (Configurations, error) {
	switch configType {
	case "json", "yaml", "yml":
	default:
		return conf, nil
	}

	raw, found := conf[contentKey]
	if !found {
		return Configurations{}, nil
	}
	content, ok := raw.(string)
	if !ok {
		return nil, errors.Errorf("%s content is %T, not a string", configType, raw)
	}

	c := Configurations{}
	if configType == "json" {
		if err := json.Unmarshal([]byte(content), &c); err != nil {
			return nil, errors.Wrap(err, "decode json content")
		}
		return c, nil
	}

	if err := yaml.Unmarshal([]byte(content), &c); err != nil {
		return nil, errors.Wrap(err, "decode yaml content")
	}
	for k, v := range c {
		c[k] = stringKeys(v)
	}
	return c, nil
}

// stringKeys turns the map[interface{}]interface{} values yaml produces
// into map[string]interface{} so they can be encoded as json.
func stringKeys(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = stringKeys(val)
		}
		return m
	case []interface{}:
		for i, val := range t {
			t[i] = stringKeys(val)
		}
		return t
	default:
		return v
	}
}
