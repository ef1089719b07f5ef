package knuffimap

var (
	defaultName               = "default"
	defaultImmutableSnapshots = false
)

type Options struct {
	Name               string // 用于日志和指标的标签，默认：default
	Logger             Logger // 需要日志需要设置实现，或者注入有效的io.Writer，默认: ioutil.Discard
	ImmutableSnapshots bool   // 每次发布时复制一份KnuffiMap，默认：false，发布同一个实例
}

func newOptions(opts ...Option) Options {
	var options = Options{
		Name:               defaultName,
		Logger:             NewLogger(),
		ImmutableSnapshots: defaultImmutableSnapshots,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = NewLogger()
	}

	return options
}

type Option func(*Options)

func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

func WithLogger(l Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithImmutableSnapshots makes the adapter publish a copy of the map on each
// change instead of the live instance it keeps mutating.
func WithImmutableSnapshots() Option {
	return func(o *Options) {
		o.ImmutableSnapshots = true
	}
}
