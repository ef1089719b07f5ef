package apollo

import "context"

type mockClient struct {
	notifications    func(configServerURL, appID, cluster string, notifications []Notification) (int, []Notification, error)
	getConfigs       func(configServerURL, appID, cluster, namespace, releaseKey string) (int, *Config, error)
	getConfigServers func(metaServerURL, appID string) (int, []ConfigServer, error)
}

func (c *mockClient) Notifications(ctx context.Context, configServerURL, appID, cluster string, notifications []Notification) (int, []Notification, error) {
	if c.notifications == nil {
		<-ctx.Done()
		return 0, nil, ctx.Err()
	}
	return c.notifications(configServerURL, appID, cluster, notifications)
}

func (c *mockClient) GetConfigs(ctx context.Context, configServerURL, appID, cluster, namespace, releaseKey string) (int, *Config, error) {
	if c.getConfigs == nil {
		return 404, nil, nil
	}
	return c.getConfigs(configServerURL, appID, cluster, namespace, releaseKey)
}

func (c *mockClient) GetConfigServers(ctx context.Context, metaServerURL, appID string) (int, []ConfigServer, error) {
	if c.getConfigServers == nil {
		return 404, nil, nil
	}
	return c.getConfigServers(metaServerURL, appID)
}
