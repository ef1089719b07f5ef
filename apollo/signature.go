package apollo

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	authorizationFormat = "Apollo %s:%s"
	signatureDelimiter  = "\n"

	HeaderAuthorization = "Authorization"
	HeaderTimestamp     = "Timestamp"
)

type Header map[string]string

type SignatureContext struct {
	AppID           string
	AccessKey       string
	ConfigServerURL string
	RequestURI      string // path and query after the host
	Cluster         string // empty for the meta server API
	Now             func() time.Time
}

type SignatureFunc func(ctx *SignatureContext) Header

// DefaultSignatureFunc signs requests the way Apollo's access key
// authentication expects. Without an access key no header is set.
func DefaultSignatureFunc(ctx *SignatureContext) Header {
	if ctx.AppID == "" || ctx.AccessKey == "" {
		return nil
	}

	now := time.Now
	if ctx.Now != nil {
		now = ctx.Now
	}
	timestamp := strconv.FormatInt(now().UnixMilli(), 10)
	apiURL := ctx.ConfigServerURL + ctx.RequestURI

	return Header{
		HeaderAuthorization: fmt.Sprintf(authorizationFormat, ctx.AppID,
			sign(timestamp, pathWithQuery(apiURL), ctx.AccessKey)),
		HeaderTimestamp: timestamp,
	}
}

func pathWithQuery(uri string) string {
	r, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	r.Scheme = ""
	r.Host = ""
	return r.String()
}

func sign(timestamp, pathWithQuery, accessKey string) string {
	mac := hmac.New(sha1.New, []byte(accessKey))
	_, _ = mac.Write([]byte(timestamp + signatureDelimiter + pathWithQuery))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
