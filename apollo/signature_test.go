package apollo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPathWithQuery(t *testing.T) {
	assert.Equal(t, "/configsvc-dev/services/config?id=1",
		pathWithQuery("http://apollo.meta/configsvc-dev/services/config?id=1"))
}

func TestDefaultSignatureFunc(t *testing.T) {
	assert.Nil(t, DefaultSignatureFunc(&SignatureContext{AppID: "app"}))

	now := time.UnixMilli(1700000000000)
	header := DefaultSignatureFunc(&SignatureContext{
		AppID:           "app",
		AccessKey:       "secret",
		ConfigServerURL: "http://localhost:8080",
		RequestURI:      "/configs/app/default/application?ip=1.1.1.1",
		Now:             func() time.Time { return now },
	})

	assert.Equal(t, "1700000000000", header[HeaderTimestamp])
	expected := "Apollo app:" + sign("1700000000000", "/configs/app/default/application?ip=1.1.1.1", "secret")
	assert.Equal(t, expected, header[HeaderAuthorization])

	// same input, same signature; another key, another signature.
	assert.Equal(t, sign("1", "/a", "k"), sign("1", "/a", "k"))
	assert.NotEqual(t, sign("1", "/a", "k"), sign("1", "/a", "other"))
}
