package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/shima-park/knuffimap"
	"github.com/shima-park/knuffimap/apollo"
)

func newRootCommand() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:          "knuffiwatch [namespace]",
		Short:        "Watch an apollo namespace as a map sorted by a field of its values",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		panic(err)
	}
	return cmd
}

func run(ctx context.Context, cfg config, out io.Writer) error {
	zl := zap.NewNop()
	if cfg.Verbose {
		var err error
		if zl, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}
	defer func() { _ = zl.Sync() }()
	logger := knuffimap.NewZapLogger(zl)

	deserialize, err := knuffimap.DeserializerFor[record](cfg.Format)
	if err != nil {
		return err
	}

	opts := []apollo.Option{
		apollo.Cluster(cfg.Cluster),
		apollo.WithLogger(logger),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, apollo.AccessKey(cfg.AccessKey))
	}
	ref, err := apollo.NewReference(cfg.Server, cfg.AppID, cfg.Namespace, opts...)
	if err != nil {
		return err
	}
	defer ref.Close()

	if cfg.MetricsAddr != "" {
		stop, err := serveMetrics(cfg.MetricsAddr, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	adapter := knuffimap.NewMapAdapter(ref, deserialize, fieldComparator(cfg.SortBy, cfg.Desc),
		knuffimap.WithName(cfg.Namespace),
		knuffimap.WithLogger(logger),
	)
	observer := adapter.Observe()
	defer observer.Stop()

	if err := adapter.Open(ctx); err != nil {
		_ = adapter.Close()
		return err
	}
	defer adapter.Close()

	for {
		select {
		case m, ok := <-observer.Updates():
			if !ok {
				return observer.Err()
			}
			if err := printMap(out, m); err != nil {
				return err
			}
		case perr := <-ref.Errors():
			logger.Log("[knuffiwatch]", "", "Namespace", perr.Namespace,
				"ConfigServerUrl", perr.ConfigServerURL, "Error", perr.Err)
		case <-ctx.Done():
			return nil
		}
	}
}

func printMap(out io.Writer, m *knuffimap.KnuffiMap[record]) error {
	if _, err := fmt.Fprintf(out, "--- %d entries\n", m.Len()); err != nil {
		return err
	}

	var err error
	i := 0
	m.ForEach(func(key string, value record) {
		if err != nil {
			return
		}
		var b []byte
		if b, err = json.Marshal(value); err != nil {
			return
		}
		i++
		_, err = fmt.Fprintf(out, "%3d. %s %s\n", i, key, b)
	})
	return err
}

func serveMetrics(addr string, logger knuffimap.Logger) (func(), error) {
	reg := prometheus.NewRegistry()
	if err := knuffimap.RegisterMetrics(reg); err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log("[knuffiwatch]", "", "MetricsAddr", addr, "Error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
