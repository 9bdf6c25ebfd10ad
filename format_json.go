//go:build !nojson

package pingline

import "encoding/json"

func init() {
	formatters[FormatJson] = formatJson
}

// formatJson never fails the caller; an encoding error yields an empty line
func formatJson(sample Sample) string {

	data, err := json.Marshal(sample)
	if err != nil {
		return ""
	}

	return string(data)
}
