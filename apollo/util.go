package apollo

import (
	"path"
	"strings"
)

func normalizeURL(url string) string {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}

	return strings.TrimSuffix(url, "/")
}

func splitCommaSeparatedURL(s string) []string {
	var urls []string
	for _, url := range strings.Split(s, ",") {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		urls = append(urls, normalizeURL(url))
	}

	return urls
}

// ConfigType returns the format of a namespace from its extension.
// Namespaces without a known extension are properties.
func ConfigType(namespace string) string {
	switch ext := strings.ToLower(strings.TrimPrefix(path.Ext(namespace), ".")); ext {
	case "json", "yaml", "yml", "xml", "txt":
		return ext
	default:
		return defaultConfigType
	}
}

// sameNamespace compares namespace names the way the notification API
// reports them: properties namespaces come back without their suffix.
func sameNamespace(a, b string) bool {
	suffix := "." + defaultConfigType
	return strings.TrimSuffix(a, suffix) == strings.TrimSuffix(b, suffix)
}
