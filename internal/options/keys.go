package options

// Key is a recognized option name
type Key string

const (
	KeyOptions                      Key = "options"
	KeyDefaultCharset               Key = "defaultCharset"
	KeyForceCharset                 Key = "forceCharset"
	KeyRequestCharset               Key = "requestCharset"
	KeyProxy                        Key = "proxy"
	KeySSLEnabledProtocols          Key = "sslEnabledProtocols"
	KeySSLEnabledProtocolsAdd       Key = "sslEnabledProtocolsAdd"
	KeySSLEnabledProtocolsRemove    Key = "sslEnabledProtocolsRemove"
	KeySSLEnabledCipherSuites       Key = "sslEnabledCipherSuites"
	KeySSLEnabledCipherSuitesAdd    Key = "sslEnabledCipherSuitesAdd"
	KeySSLEnabledCipherSuitesRemove Key = "sslEnabledCipherSuitesRemove"
	KeyPerDomain                    Key = "perDomain"
	KeyHTTPMethod                   Key = "httpMethod"
)

// DefaultCharset is used when no charset option applies
const DefaultCharset = "utf-8"

// enumNames maps constant-style spellings to canonical keys
var enumNames = map[string]Key{
	"OPTIONS":                          KeyOptions,
	"DEFAULT_CHARSET":                  KeyDefaultCharset,
	"FORCE_CHARSET":                    KeyForceCharset,
	"REQUEST_CHARSET":                  KeyRequestCharset,
	"PROXY":                            KeyProxy,
	"SSL_ENABLED_PROTOCOLS":            KeySSLEnabledProtocols,
	"SSL_ENABLED_PROTOCOLS_ADD":        KeySSLEnabledProtocolsAdd,
	"SSL_ENABLED_PROTOCOLS_REMOVE":     KeySSLEnabledProtocolsRemove,
	"SSL_ENABLED_CIPHER_SUITES":        KeySSLEnabledCipherSuites,
	"SSL_ENABLED_CIPHER_SUITES_ADD":    KeySSLEnabledCipherSuitesAdd,
	"SSL_ENABLED_CIPHER_SUITES_REMOVE": KeySSLEnabledCipherSuitesRemove,
	"PER_DOMAIN":                       KeyPerDomain,
	"HTTP_METHOD":                      KeyHTTPMethod,
}

// charsetKeys must hold string values
var charsetKeys = []Key{KeyDefaultCharset, KeyForceCharset, KeyRequestCharset}

// canonical returns the canonical spelling of a key
func canonical(name string) string {
	if k, ok := enumNames[name]; ok {
		return string(k)
	}
	return name
}

// Constants returns the constant-style key names guest programs can use,
// e.g. DEFAULT_CHARSET -> defaultCharset
func Constants() map[string]string {
	out := make(map[string]string, len(enumNames))
	for name, k := range enumNames {
		out[name] = string(k)
	}
	return out
}
