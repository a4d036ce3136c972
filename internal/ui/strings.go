package ui

import "strings"

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// truncateMiddle shortens a string by removing characters from the middle,
// preserving both the beginning and end. For paths, it preserves file extensions.
func truncateMiddle(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 || value == "" {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	ellipsis := []rune("…")
	if limit <= 3 {
		return string(runes[:limit])
	}

	if strings.Contains(value, "/") {
		lastDot := strings.LastIndex(value, ".")
		lastSlash := strings.LastIndex(value, "/")
		if lastDot > lastSlash && lastDot > 0 {
			ext := []rune(value[lastDot:])
			if len(ext) < 10 && len(ext) < limit/2 {
				base := []rune(value[:lastDot])
				baseLimit := limit - len(ext) - len(ellipsis)
				if baseLimit > 0 && len(base) > baseLimit {
					prefix := baseLimit / 2
					suffix := baseLimit - prefix
					return string(base[:prefix]) + string(ellipsis) + string(base[len(base)-suffix:]) + string(ext)
				}
			}
		}
	}

	keep := limit - len(ellipsis)
	prefix := keep / 2
	suffix := keep - prefix
	return string(runes[:prefix]) + string(ellipsis) + string(runes[len(runes)-suffix:])
}

// padRight pads a string with spaces to the given width.
func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(r))
}

// cell truncates value to width and pads it so columns line up.
func cell(value string, width int) string {
	return padRight(truncate(value, width), width)
}
