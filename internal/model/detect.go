package model

import "strings"

// DetectType classifies trimmed text content. Only http and https prefixes
// count as URLs; everything else is text.
func DetectType(content string) Type {
	if strings.HasPrefix(content, "http://") || strings.HasPrefix(content, "https://") {
		return TypeURL
	}
	return TypeText
}
