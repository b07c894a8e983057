package requests

import (
	"crypto/tls"

	"github.com/GriffinCanCode/asybalance/internal/options"
	"github.com/GriffinCanCode/asybalance/internal/providers/http/client"
)

// tlsPolicy resolves protocol and cipher-suite lists for host. It returns
// nil when no TLS option applies.
func tlsPolicy(opts options.Tree, host string) *client.TLSPolicy {
	protocols, ok := composed(opts, host,
		options.KeySSLEnabledProtocols,
		options.KeySSLEnabledProtocolsAdd,
		options.KeySSLEnabledProtocolsRemove,
		client.DefaultProtocols)
	suites, suitesOK := composed(opts, host,
		options.KeySSLEnabledCipherSuites,
		options.KeySSLEnabledCipherSuitesAdd,
		options.KeySSLEnabledCipherSuitesRemove,
		defaultSuites())

	if !ok && !suitesOK {
		return nil
	}
	p := &client.TLSPolicy{}
	if ok {
		p.Protocols = protocols
	}
	if suitesOK {
		p.CipherSuites = suites
	}
	return p
}

func composed(opts options.Tree, host string, set, add, remove options.Key, defaults []string) ([]string, bool) {
	base, hasBase := opts.Strings(set, host)
	extra, hasAdd := opts.Strings(add, host)
	drop, hasRemove := opts.Strings(remove, host)
	if !hasBase && !hasAdd && !hasRemove {
		return nil, false
	}
	if !hasBase {
		base = defaults
	}
	return client.ComposeList(base, extra, drop), true
}

func defaultSuites() []string {
	suites := tls.CipherSuites()
	out := make([]string, 0, len(suites))
	for _, s := range suites {
		out = append(out, s.Name)
	}
	return out
}
