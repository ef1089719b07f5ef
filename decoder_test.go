package knuffimap

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeserializers(t *testing.T) {
	tests := []struct {
		configType string
		raw        interface{}
	}{
		{"json", `{"rank": 7}`},
		{"json", []byte(`{"rank": 7}`)},
		{"json", map[string]interface{}{"rank": 7}},
		{"yaml", "rank: 7\n"},
		{"yml", map[string]interface{}{"rank": 7}},
		{"toml", "rank = 7\n"},
		{"hcl", "rank = 7\n"},
		{"hcl", map[string]interface{}{"rank": 7}},
		{"properties", "rank = 7\n"},
		{".properties", map[string]interface{}{"rank": 7}},
	}

	for _, tt := range tests {
		t.Run(tt.configType, func(t *testing.T) {
			deserialize, err := DeserializerFor[item](tt.configType)
			require.NoError(t, err)

			v, err := deserialize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, item{Rank: 7}, v)
		})
	}
}

func TestDeserializerErrors(t *testing.T) {
	_, err := DeserializerFor[item]("xml")
	assert.True(t, errors.Is(err, ErrUnsupportedConfigType))

	deserialize := JSONDeserializer[item]()

	_, err = deserialize(nil)
	assert.Error(t, err)

	_, err = deserialize(`{"rank":`)
	assert.Error(t, err)

	_, err = deserialize(`{"rank":"high"}`)
	assert.Error(t, err)

	_, err = YAMLDeserializer[item]()("rank: [1")
	assert.Error(t, err)

	_, err = PropertiesDeserializer[item]()([]int{1})
	assert.Error(t, err)
}

func TestJSONDeserializerIntoMap(t *testing.T) {
	v, err := JSONDeserializer[map[string]interface{}]()(`{"name":"foo","age":18}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "foo", "age": float64(18)}, v)
}
