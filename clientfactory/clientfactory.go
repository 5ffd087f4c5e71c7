// Package clientfactory builds the admin and raw-consumer handles the topic
// manager composes, given a bootstrap endpoint and optional transport
// security. It is intentionally a simple builder: SSL/bootstrap plumbing
// only, no topic-management policy.
package clientfactory

import (
	"crypto/tls"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/scram"
	"github.com/twmb/franz-go/plugin/kzap"
	"go.uber.org/zap"

	"github.com/flowbase-io/topicmgr/adminwrap"
	"github.com/flowbase-io/topicmgr/rawconsumer"
)

// ScramCreds is an optional SASL/SCRAM credential pair. A zero value means
// "no SASL".
type ScramCreds struct {
	User, Pass string
	Sha512     bool
}

// Factory builds franz-go clients bound to one bootstrap endpoint.
type Factory struct {
	bootstrap []string
	tlsConfig *tls.Config
	scram     *ScramCreds
	log       *zap.Logger

	extraOpts []kgo.Opt
}

// New builds a Factory for the given bootstrap server list. log may be nil.
func New(bootstrap []string, log *zap.Logger, opts ...Opt) *Factory {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Factory{bootstrap: bootstrap, log: log}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Opt configures a Factory at construction time.
type Opt func(*Factory)

// WithTLS enables TLS using cfg (nil disables TLS).
func WithTLS(cfg *tls.Config) Opt {
	return func(f *Factory) { f.tlsConfig = cfg }
}

// WithScram enables SASL/SCRAM authentication.
func WithScram(creds ScramCreds) Opt {
	return func(f *Factory) { f.scram = &creds }
}

// WithExtraOpts appends additional raw kgo.Opt values to every client this
// factory constructs, for cases this package's own options don't cover.
func WithExtraOpts(opts ...kgo.Opt) Opt {
	return func(f *Factory) { f.extraOpts = append(f.extraOpts, opts...) }
}

func (f *Factory) baseOpts() []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(f.bootstrap...),
		kgo.WithLogger(kzap.New(f.log)),
		// the spec's receive.buffer.bytes floor: admin work should not be
		// starved behind a tiny socket buffer.
		kgo.BrokerMaxReadBytes(1 << 20),
	}
	if f.tlsConfig != nil {
		opts = append(opts, kgo.DialTLSConfig(f.tlsConfig))
	}
	if f.scram != nil {
		mechanism := scram.Auth{User: f.scram.User, Pass: f.scram.Pass}
		if f.scram.Sha512 {
			opts = append(opts, kgo.SASL(mechanism.AsSha512Mechanism()))
		} else {
			opts = append(opts, kgo.SASL(mechanism.AsSha256Mechanism()))
		}
	}
	return append(opts, f.extraOpts...)
}

// NewAdmin builds a new adminwrap.Client. Each call creates a fresh
// underlying kgo/kadm client pair; callers are expected to reuse the
// returned wrapper rather than calling this repeatedly (the topic manager
// lazily constructs its admin wrappers once on first use).
func (f *Factory) NewAdmin() (*adminwrap.Client, error) {
	cl, err := kgo.NewClient(f.baseOpts()...)
	if err != nil {
		return nil, fmt.Errorf("client factory: new admin client: %w", err)
	}
	return adminwrap.New(kadm.NewClient(cl), cl, f.log), nil
}

// NewRawConsumer builds a new rawconsumer.Client configured for direct
// partition consumption (no consumer group).
func (f *Factory) NewRawConsumer(cfg rawconsumer.Config) (*rawconsumer.Client, error) {
	cl, err := kgo.NewClient(f.baseOpts()...)
	if err != nil {
		return nil, fmt.Errorf("client factory: new raw consumer: %w", err)
	}
	return rawconsumer.New(cl, cfg, f.log), nil
}

// Bootstrap returns the bootstrap server list this factory is bound to.
func (f *Factory) Bootstrap() []string { return f.bootstrap }

// Clone returns a new Factory bound to a different bootstrap list, carrying
// over this factory's TLS/SASL/extra-opts configuration.
func (f *Factory) Clone(bootstrap []string) *Factory {
	clone := *f
	clone.bootstrap = bootstrap
	return &clone
}
