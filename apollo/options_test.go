package apollo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	var (
		configServerURL = "localhost:8080"
		appID           = "SampleApp"
	)
	var tests = []struct {
		Options []Option
		Check   func(Options)
	}{
		{
			[]Option{},
			func(opts Options) {
				assert.Equal(t, appID, opts.AppID)
				assert.Equal(t, defaultCluster, opts.Cluster)
				assert.Equal(t, defaultPollInterval, opts.PollInterval)
				assert.Equal(t, defaultEnableSLB, opts.EnableSLB)
				assert.NotNil(t, opts.Logger)
				assert.NotNil(t, opts.Client)
				assert.NotNil(t, opts.Balancer)
				c := opts.Client.(*httpClient)
				assert.Empty(t, c.AccessKey)
			},
		},
		{
			[]Option{
				Cluster("test_cluster"),
				PollInterval(time.Second * 30),
				AccessKey("test_access_key"),
				WithLogger(nil),
			},
			func(opts Options) {
				assert.Equal(t, "test_cluster", opts.Cluster)
				assert.Equal(t, time.Second*30, opts.PollInterval)
				assert.NotNil(t, opts.Logger)
				c := opts.Client.(*httpClient)
				assert.Equal(t, "test_access_key", c.AccessKey)
			},
		},
		{
			[]Option{
				EnableSLB(true),
				ConfigServerRefreshInterval(time.Hour),
				WithClient(&mockClient{
					getConfigServers: func(metaServerURL, appID string) (int, []ConfigServer, error) {
						return 200,
							[]ConfigServer{
								{
									AppName:     "test",
									InstanceID:  "test",
									HomePageURL: "http://10.0.0.3:8080",
								},
							},
							nil
					},
				}),
			},
			func(opts Options) {
				assert.Equal(t, true, opts.EnableSLB)
				assert.Equal(t, time.Hour, opts.RefreshInterval)
				selected, err := opts.Balancer.Select()
				assert.Nil(t, err)
				assert.Equal(t, "http://10.0.0.3:8080", selected)
				opts.Balancer.Stop()
			},
		},
		{
			[]Option{
				WithBalancer(NewRoundRobin([]string{"http://10.0.0.4:8080"})),
			},
			func(opts Options) {
				selected, err := opts.Balancer.Select()
				assert.Nil(t, err)
				assert.Equal(t, "http://10.0.0.4:8080", selected)
			},
		},
	}

	for _, test := range tests {
		opts, err := newOptions(configServerURL, appID, test.Options...)
		if err != nil {
			assert.Nil(t, err)
		}
		test.Check(opts)
	}
}
