package pingline

import (
	"fmt"
	"strconv"
	"strings"
)

// Formatter renders a sample into a single output line
type Formatter func(sample Sample) string

type Format int

const (
	FormatHuman Format = iota
	FormatCsv
	FormatJson
)

var formatNames = map[Format]string{
	FormatHuman: "human",
	FormatCsv:   "csv",
	FormatJson:  "json",
}

// formatters holds the variants compiled into this build
var formatters = map[Format]Formatter{
	FormatHuman: formatHuman,
	FormatCsv:   formatCsv,
}

func (this Format) String() string {
	return formatNames[this]
}

func (this *Format) Set(val string) error {

	format, err := ParseFormat(val)
	if err != nil {
		return err
	}

	*this = format
	return nil
}

func (this *Format) Type() string {
	return "format"
}

// Formats lists the names of all formats available in this build
func Formats() []string {

	var names []string
	for _, format := range []Format{FormatHuman, FormatCsv, FormatJson} {
		if _, has := formatters[format]; has {
			names = append(names, format.String())
		}
	}

	return names
}

func ParseFormat(val string) (Format, error) {

	token := strings.ToLower(strings.TrimSpace(val))

	for format, name := range formatNames {
		if name != token {
			continue
		}
		if _, has := formatters[format]; !has {
			return 0, fmt.Errorf("format '%s' is not supported by this build", token)
		}
		return format, nil
	}

	return 0, fmt.Errorf("unknown format '%s' (available: %s)", val, strings.Join(Formats(), ", "))
}

// NewFormatter resolves a format into its rendering function.
// The result is meant to be selected once and reused for every sample.
func NewFormatter(format Format) (Formatter, error) {

	formatter, has := formatters[format]
	if !has {
		return nil, fmt.Errorf("format '%s' is not supported by this build", format)
	}

	return formatter, nil
}

func formatHuman(sample Sample) string {
	return fmt.Sprintf("%.6f: %.6f ms", sample.Timestamp, sample.Rtt)
}

func formatCsv(sample Sample) string {
	return fmt.Sprintf("%.6f,%s", sample.Timestamp, strconv.FormatFloat(sample.Rtt, 'f', -1, 64))
}
