package observability

import (
	"log/slog"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/urlutil"
	"github.com/m-mizutani/masq"
)

// sensitiveFields are attribute names whose values are never logged.
var sensitiveFields = []string{
	"password", "Password",
	"secret", "Secret",
	"token", "Token",
	"apikey", "ApiKey", "api_key",
	"credential", "Credential",
}

// newRedactor returns a ReplaceAttr function that hides credentials.
//
// String values have URL credentials masked in place so the rest of the URL
// stays readable. Sensitive attribute names, including struct fields, are
// then replaced wholesale by masq.
func newRedactor() func([]string, slog.Attr) slog.Attr {
	opts := make([]masq.Option, 0, len(sensitiveFields)+1)
	for _, name := range sensitiveFields {
		opts = append(opts, masq.WithFieldName(name))
	}
	opts = append(opts, masq.WithTag("secret"))
	filter := masq.New(opts...)

	return func(groups []string, a slog.Attr) slog.Attr {
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, urlutil.Redacted)
		}
		if a.Value.Kind() == slog.KindString {
			if masked := urlutil.MaskCredentials(a.Value.String()); masked != a.Value.String() {
				return slog.String(a.Key, masked)
			}
			return a
		}
		return filter(groups, a)
	}
}

func isSensitiveKey(key string) bool {
	for _, name := range sensitiveFields {
		if key == name {
			return true
		}
	}
	return false
}
