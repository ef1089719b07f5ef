package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type config struct {
	Server      string
	AppID       string
	Cluster     string
	Namespace   string
	AccessKey   string
	Format      string
	SortBy      string
	Desc        bool
	MetricsAddr string
	Verbose     bool
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	flags.String("config", "", "config file (yaml, toml, hcl, json or properties)")
	flags.String("server", "", "apollo config server url, comma separated (env APOLLO_CONFIGSERVICE)")
	flags.String("app-id", "", "apollo app id")
	flags.String("cluster", "default", "apollo cluster")
	flags.String("namespace", "application", "namespace to watch")
	flags.String("access-key", "", "apollo access key (env APOLLO_ACCESS_KEY)")
	flags.String("format", "json", "format of each child value: json, yaml, toml or hcl")
	flags.String("sort-by", "rank", "field of the child value to sort by")
	flags.Bool("desc", false, "sort descending")
	flags.String("metrics-addr", "", "serve prometheus metrics on this address")
	flags.BoolP("verbose", "v", false, "log to stderr")

	v.SetEnvPrefix("knuffi")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v.BindPFlags(flags)
}

func loadConfig(v *viper.Viper, args []string) (config, error) {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return config{}, errors.Wrapf(err, "read config %s", file)
		}
	}

	cfg := config{
		Server:      v.GetString("server"),
		AppID:       v.GetString("app-id"),
		Cluster:     v.GetString("cluster"),
		Namespace:   v.GetString("namespace"),
		AccessKey:   v.GetString("access-key"),
		Format:      v.GetString("format"),
		SortBy:      v.GetString("sort-by"),
		Desc:        v.GetBool("desc"),
		MetricsAddr: v.GetString("metrics-addr"),
		Verbose:     v.GetBool("verbose"),
	}
	if len(args) > 0 {
		cfg.Namespace = args[0]
	}

	if cfg.AppID == "" {
		return cfg, errors.New("app-id is required")
	}
	if cfg.Namespace == "" {
		return cfg, errors.New("namespace is required")
	}
	return cfg, nil
}
