package apollo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shima-park/knuffimap"
)

func TestConfigurationsDifferent(t *testing.T) {
	old := Configurations{
		"name":    "foo",
		"age":     18,
		"balance": 101.2,
		"tags":    []interface{}{"a"},
	}
	new := Configurations{
		"name":   "foo",
		"age":    19,
		"height": 1.82,
		"tags":   []interface{}{"a"},
	}

	assert.Equal(t, []knuffimap.ChildEvent{
		{Type: knuffimap.ChildChanged, Key: "age", Value: 19},
		{Type: knuffimap.ChildRemoved, Key: "balance", Value: 101.2},
		{Type: knuffimap.ChildAdded, Key: "height", Value: 1.82},
	}, old.Different(new))

	assert.Empty(t, new.Different(new))
}

func TestChildren(t *testing.T) {
	props := Configurations{"a": `{"rank":1}`}
	c, err := children("properties", props)
	require.NoError(t, err)
	assert.Equal(t, props, c)

	c, err = children("json", Configurations{"content": `{"a":{"rank":1},"b":{"rank":2}}`})
	require.NoError(t, err)
	assert.Equal(t, Configurations{
		"a": map[string]interface{}{"rank": float64(1)},
		"b": map[string]interface{}{"rank": float64(2)},
	}, c)

	c, err = children("yaml", Configurations{"content": "a:\n  rank: 1\n  tags: [{x: 1}]\n"})
	require.NoError(t, err)
	assert.Equal(t, Configurations{
		"a": map[string]interface{}{
			"rank": 1,
			"tags": []interface{}{map[string]interface{}{"x": 1}},
		},
	}, c)

	c, err = children("yml", Configurations{})
	require.NoError(t, err)
	assert.Empty(t, c)

	_, err = children("json", Configurations{"content": `{"a":`})
	assert.Error(t, err)

	_, err = children("json", Configurations{"content": 1})
	assert.Error(t, err)
}
