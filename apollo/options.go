package apollo

import (
	"os"
	"time"

	"github.com/shima-park/knuffimap"
)

var (
	defaultCluster        = "default"
	defaultEnableSLB      = false
	defaultPollInterval   = 1 * time.Second
	defaultNotificationID = -1
	defaultErrorsChanSize = 16
)

type Options struct {
	AppID           string           // appid
	Cluster         string           // 集群名称，默认：default
	Client          Client           // apollo HTTP api实现
	ClientOptions   []ClientOption   // 默认Client的可选项，例如AccessKey
	Logger          knuffimap.Logger // 默认: ioutil.Discard
	PollInterval    time.Duration    // 轮训间隔时间，默认：1s
	Balancer        Balancer         // ConfigServer负载均衡
	EnableSLB       bool             // 启用ConfigServer负载均衡，从meta server获取ConfigServer列表
	RefreshInterval time.Duration    // ConfigServer列表刷新间隔
}

func newOptions(configServerURL, appID string, opts ...Option) (Options, error) {
	var options = Options{
		AppID:        appID,
		Cluster:      defaultCluster,
		Logger:       knuffimap.NewLogger(),
		PollInterval: defaultPollInterval,
		EnableSLB:    defaultEnableSLB,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = knuffimap.NewLogger()
	}

	if options.Client == nil {
		options.Client = NewClient(options.ClientOptions...)
	}

	if options.Balancer == nil {
		var b Balancer
		configServerURLs := configServers(configServerURL)
		if options.EnableSLB || len(configServerURLs) == 0 {
			var err error
			b, err = NewAutoFetchBalancer(configServerURL, appID,
				options.Client.GetConfigServers,
				options.RefreshInterval, options.Logger)
			if err != nil {
				return options, err
			}
		} else {
			b = NewRoundRobin(configServerURLs)
		}
		options.Balancer = b
	}

	return options, nil
}

// configServers prefers the given url and falls back to the
// APOLLO_CONFIGSERVICE environment variable.
func configServers(configServerURL string) []string {
	for _, url := range []string{configServerURL, os.Getenv("APOLLO_CONFIGSERVICE")} {
		if url != "" {
			return splitCommaSeparatedURL(url)
		}
	}
	return nil
}

type Option func(*Options)

func Cluster(cluster string) Option {
	return func(o *Options) {
		o.Cluster = cluster
	}
}

func WithClient(c Client) Option {
	return func(o *Options) {
		o.Client = c
	}
}

func WithClientOptions(opts ...ClientOption) Option {
	return func(o *Options) {
		o.ClientOptions = append(o.ClientOptions, opts...)
	}
}

func AccessKey(accessKey string) Option {
	return WithClientOptions(WithAccessKey(accessKey))
}

func WithLogger(l knuffimap.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

func PollInterval(i time.Duration) Option {
	return func(o *Options) {
		o.PollInterval = i
	}
}

func EnableSLB(b bool) Option {
	return func(o *Options) {
		o.EnableSLB = b
	}
}

func WithBalancer(b Balancer) Option {
	return func(o *Options) {
		o.Balancer = b
	}
}

func ConfigServerRefreshInterval(d time.Duration) Option {
	return func(o *Options) {
		o.RefreshInterval = d
	}
}
