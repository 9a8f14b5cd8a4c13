package event

import "fmt"

// Event type names with dedicated title/location strategies. Anything else
// falls back to the default strategy.
const (
	TypeDefault = "default"
	TypeError   = "error"
	TypeCSP     = "csp"
)

const maxErrorValueLength = 100

// typeStrategy derives display fields from the event metadata computed at
// ingestion time. The set of strategies is closed; resolution happens once
// per access from the type field in metadata.
type typeStrategy interface {
	Title(metadata map[string]interface{}) string
	Location(metadata map[string]interface{}) string
}

func strategyFor(name string) typeStrategy {
	switch name {
	case TypeError:
		return errorStrategy{}
	case TypeCSP:
		return cspStrategy{}
	default:
		return defaultStrategy{}
	}
}

type defaultStrategy struct{}

func (defaultStrategy) Title(md map[string]interface{}) string {
	if title := metaString(md, "title"); title != "" {
		return title
	}
	return "<unlabeled event>"
}

func (defaultStrategy) Location(md map[string]interface{}) string {
	return metaString(md, "location")
}

type errorStrategy struct{}

func (errorStrategy) Title(md map[string]interface{}) string {
	typ := metaString(md, "type")
	value := metaString(md, "value")

	switch {
	case typ != "" && value != "":
		return fmt.Sprintf("%s: %s", typ, truncate(value, maxErrorValueLength))
	case typ != "":
		return typ
	case value != "":
		return truncate(value, maxErrorValueLength)
	default:
		return "<unknown>"
	}
}

func (errorStrategy) Location(md map[string]interface{}) string {
	return metaString(md, "filename")
}

type cspStrategy struct{}

func (cspStrategy) Title(md map[string]interface{}) string {
	directive := metaString(md, "directive")
	uri := metaString(md, "uri")
	if directive == "" {
		return "<csp>"
	}
	if uri == "" {
		return fmt.Sprintf("Blocked '%s'", directive)
	}
	return fmt.Sprintf("Blocked '%s' from '%s'", directive, uri)
}

func (cspStrategy) Location(md map[string]interface{}) string {
	return metaString(md, "uri")
}

func metaString(md map[string]interface{}, key string) string {
	if md == nil {
		return ""
	}
	if s, ok := md[key].(string); ok {
		return s
	}
	return ""
}

// truncate shortens s to at most n runes, ellipsized.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
