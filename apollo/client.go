package apollo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/pkg/errors"
)

var (
	// the notification API holds a request for 60 seconds when nothing
	// changed, so the client timeout has to be longer.
	defaultClientTimeout = 90 * time.Second
	defaultConfigType    = "properties"
)

// EnvAccessKey is read when no access key is given explicitly.
const EnvAccessKey = "APOLLO_ACCESS_KEY"

// https://www.apolloconfig.com/#/zh/client/other-language-client-user-guide
type Client interface {
	// Notifications long polls for namespaces whose notification id moved
	// past the given ones.
	Notifications(ctx context.Context, configServerURL, appID, cluster string, notifications []Notification) (int, []Notification, error)

	// GetConfigs reads a namespace bypassing the server cache. A matching
	// releaseKey yields 304.
	GetConfigs(ctx context.Context, configServerURL, appID, cluster, namespace, releaseKey string) (int, *Config, error)

	// GetConfigServers asks the meta server for the config service list.
	GetConfigServers(ctx context.Context, metaServerURL, appID string) (int, []ConfigServer, error)
}

type Notifications []Notification

func (n Notifications) String() string {
	bytes, _ := json.Marshal(n)
	return string(bytes)
}

type Notification struct {
	NamespaceName  string `json:"namespaceName"`
	NotificationID int    `json:"notificationId"`
}

type Config struct {
	AppID          string         `json:"appId"`
	Cluster        string         `json:"cluster"`
	NamespaceName  string         `json:"namespaceName"`
	Configurations Configurations `json:"configurations"`
	ReleaseKey     string         `json:"releaseKey"`
}

type ConfigServer struct {
	AppName     string `json:"appName"`
	InstanceID  string `json:"instanceId"`
	HomePageURL string `json:"homepageUrl"`
}

type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

type httpClient struct {
	Doer          Doer
	IP            string
	AccessKey     string
	SignatureFunc SignatureFunc
}

func NewClient(opts ...ClientOption) Client {
	c := &httpClient{
		IP:            localIP(),
		Doer:          &http.Client{Timeout: defaultClientTimeout},
		AccessKey:     os.Getenv(EnvAccessKey),
		SignatureFunc: DefaultSignatureFunc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ClientOption func(*httpClient)

func WithDoer(d Doer) ClientOption {
	return func(c *httpClient) {
		c.Doer = d
	}
}

func WithIP(ip string) ClientOption {
	return func(c *httpClient) {
		c.IP = ip
	}
}

func WithAccessKey(accessKey string) ClientOption {
	return func(c *httpClient) {
		c.AccessKey = accessKey
	}
}

func WithSignatureFunc(sf SignatureFunc) ClientOption {
	return func(c *httpClient) {
		c.SignatureFunc = sf
	}
}

func (c *httpClient) Notifications(ctx context.Context, configServerURL, appID, cluster string, notifications []Notification) (status int, result []Notification, err error) {
	if len(notifications) == 0 {
		return 0, []Notification{}, nil
	}
	requestURI := fmt.Sprintf("/notifications/v2?appId=%s&cluster=%s&notifications=%s",
		url.QueryEscape(appID),
		url.QueryEscape(cluster),
		url.QueryEscape(Notifications(notifications).String()),
	)
	status, err = c.get(ctx, configServerURL, requestURI, appID, cluster, &result)
	return
}

func (c *httpClient) GetConfigs(ctx context.Context, configServerURL, appID, cluster, namespace, releaseKey string) (int, *Config, error) {
	requestURI := fmt.Sprintf("/configs/%s/%s/%s?releaseKey=%s&ip=%s",
		url.QueryEscape(appID),
		url.QueryEscape(cluster),
		url.QueryEscape(namespace),
		url.QueryEscape(releaseKey),
		c.IP,
	)
	config := new(Config)
	status, err := c.get(ctx, configServerURL, requestURI, appID, cluster, config)
	return status, config, err
}

func (c *httpClient) GetConfigServers(ctx context.Context, metaServerURL, appID string) (int, []ConfigServer, error) {
	requestURI := fmt.Sprintf("/services/config?id=%s&appId=%s", c.IP, url.QueryEscape(appID))
	var servers []ConfigServer
	status, err := c.get(ctx, metaServerURL, requestURI, appID, "", &servers)
	return status, servers, err
}

// get decodes a 200 response into v. Other statuses are returned without
// an error so callers can tell 304 and 404 apart.
func (c *httpClient) get(ctx context.Context, serverURL, requestURI, appID, cluster string, v interface{}) (int, error) {
	serverURL = normalizeURL(serverURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+requestURI, nil)
	if err != nil {
		return 0, err
	}

	headers := c.SignatureFunc(&SignatureContext{
		ConfigServerURL: serverURL,
		RequestURI:      requestURI,
		AccessKey:       c.AccessKey,
		AppID:           appID,
		Cluster:         cluster,
	})
	for key, val := range headers {
		req.Header.Set(key, val)
	}

	resp, err := c.Doer.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	if resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(body, v); err != nil {
			return resp.StatusCode, errors.Wrapf(err, "decode %s", requestURI)
		}
	}
	return resp.StatusCode, nil
}

func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}

	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return ""
}
