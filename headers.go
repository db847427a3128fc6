package typroxy

import "strings"

// parseHeaders splits "Name: Value" entries on the first colon. Entries
// without a colon or with an empty name are returned as skipped. A later
// entry replaces an earlier one with the same name.
func parseHeaders(entries []string) (headers map[string]string, skipped []string) {
	headers = make(map[string]string, len(entries))
	for _, entry := range entries {
		name, value, ok := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			skipped = append(skipped, entry)
			continue
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, skipped
}
