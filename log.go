package knuffimap

import (
	"fmt"
	"io"
	"io/ioutil"

	"go.uber.org/zap"
)

type Logger interface {
	Log(kvs ...interface{})
}

type LoggerOption func(*logger)

func LoggerWriter(w io.Writer) LoggerOption {
	return func(l *logger) {
		l.w = w
	}
}

func NewLogger(opts ...LoggerOption) Logger {
	l := &logger{}
	for _, opt := range opts {
		opt(l)
	}

	if l.w == nil {
		l.w = ioutil.Discard
	}

	return l
}

type logger struct {
	w io.Writer
}

func (l *logger) Log(kvs ...interface{}) {
	fmt.Fprintln(l.w, kvs...)
}

// NewZapLogger logs through zap. A leading "[Name]", "" pair is used as the
// logger name and the remaining pairs become structured fields.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLogger{l: l.Sugar()}
}

type zapLogger struct {
	l *zap.SugaredLogger
}

func (z *zapLogger) Log(kvs ...interface{}) {
	l := z.l
	if len(kvs) >= 2 {
		if name, ok := kvs[0].(string); ok && len(name) > 2 && name[0] == '[' && name[len(name)-1] == ']' {
			l = l.Named(name[1 : len(name)-1])
			kvs = kvs[2:]
		}
	}

	for i := 0; i+1 < len(kvs); i += 2 {
		if err, ok := kvs[i+1].(error); ok && err != nil {
			l.Errorw("knuffimap", kvs...)
			return
		}
	}
	l.Infow("knuffimap", kvs...)
}
