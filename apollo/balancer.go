package apollo

import (
	"context"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/shima-park/knuffimap"
)

var (
	defaultRefreshInterval     = 60 * time.Second
	defaultMetaURL             = "http://apollo.meta"
	ErrNoConfigServerAvailable = errors.New("no config server available")
)

type Balancer interface {
	Select() (string, error)
	Stop()
}

type GetConfigServersFunc func(ctx context.Context, metaServerURL, appID string) (int, []ConfigServer, error)

// autoFetchBalancer round robins over the config services announced by the
// meta server and refreshes that list periodically.
type autoFetchBalancer struct {
	appID             string
	getConfigServers  GetConfigServersFunc
	metaServerAddress string
	logger            knuffimap.Logger

	mu sync.RWMutex
	b  Balancer

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewAutoFetchBalancer(configServerURL, appID string, getConfigServers GetConfigServersFunc,
	refreshInterval time.Duration, logger knuffimap.Logger) (Balancer, error) {

	if refreshInterval <= 0 {
		refreshInterval = defaultRefreshInterval
	}

	b := &autoFetchBalancer{
		appID:            appID,
		getConfigServers: getConfigServers,
		// the meta server is deployed together with the config service, so
		// the config server url doubles as its address.
		metaServerAddress: metaServerAddress(configServerURL),
		logger:            logger,
		stopCh:            make(chan struct{}),
		b:                 NewRoundRobin([]string{normalizeURL(configServerURL)}),
	}

	if err := b.refresh(); err != nil {
		return nil, err
	}

	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-b.stopCh:
				return
			case <-ticker.C:
				_ = b.refresh()
			}
		}
	}()

	return b, nil
}

// metaServerAddress prefers the given url, then APOLLO_META, then the
// conventional http://apollo.meta.
func metaServerAddress(configServerURL string) string {
	for _, url := range []string{configServerURL, os.Getenv("APOLLO_META")} {
		if urls := splitCommaSeparatedURL(url); len(urls) > 0 {
			return urls[rand.Intn(len(urls))]
		}
	}
	return defaultMetaURL
}

func (b *autoFetchBalancer) refresh() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultClientTimeout)
	defer cancel()

	_, servers, err := b.getConfigServers(ctx, b.metaServerAddress, b.appID)
	if err != nil {
		b.logger.Log(
			"[Apollo]", "",
			"AppID", b.appID,
			"MetaServerAddress", b.metaServerAddress,
			"Action", "GetConfigServers",
			"Error", err,
		)
		return err
	}

	var urls []string
	for _, s := range servers {
		urls = append(urls, normalizeURL(s.HomePageURL))
	}
	if len(urls) == 0 {
		return nil
	}

	b.mu.Lock()
	b.b = NewRoundRobin(urls)
	b.mu.Unlock()
	return nil
}

func (b *autoFetchBalancer) Select() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.b.Select()
}

func (b *autoFetchBalancer) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
}

type roundRobin struct {
	ss []string
	c  uint64
}

func NewRoundRobin(ss []string) Balancer {
	return &roundRobin{ss: ss}
}

func (rr *roundRobin) Select() (string, error) {
	if len(rr.ss) == 0 {
		return "", ErrNoConfigServerAvailable
	}

	n := atomic.AddUint64(&rr.c, 1) - 1
	return rr.ss[n%uint64(len(rr.ss))], nil
}

func (rr *roundRobin) Stop() {}
