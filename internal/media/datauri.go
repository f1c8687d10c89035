package media

import (
	"encoding/base64"
	"fmt"
	"regexp"
)

var dataURIRegex = regexp.MustCompile(`^data:(image/(?:jpeg|png|webp));base64,(.+)$`)

// ParseDataURI splits a self-describing image payload into its MIME type and
// raw bytes. Only the image types the intake accepts are recognized.
func ParseDataURI(uri string) (string, []byte, error) {
	match := dataURIRegex.FindStringSubmatch(uri)
	if match == nil {
		return "", nil, fmt.Errorf("invalid image data uri")
	}
	data, err := base64.StdEncoding.DecodeString(match[2])
	if err != nil {
		return "", nil, fmt.Errorf("decode data uri payload: %w", err)
	}
	return match[1], data, nil
}

func BuildDataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
