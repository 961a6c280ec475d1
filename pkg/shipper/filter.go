package shipper

import "strings"

// RateFilter is a business-policy post-filter applied to an adapter's quotes.
type RateFilter func(quotes []RateQuote) []RateQuote

// KeepServices returns a filter retaining quotes whose service code contains
// any of the given fragments, case-insensitively.
func KeepServices(fragments ...string) RateFilter {
	lowered := make([]string, len(fragments))
	for i, f := range fragments {
		lowered[i] = strings.ToLower(f)
	}
	return func(quotes []RateQuote) []RateQuote {
		out := make([]RateQuote, 0, len(quotes))
		for _, q := range quotes {
			code := strings.ToLower(q.ServiceCode)
			for _, f := range lowered {
				if strings.Contains(code, f) {
					out = append(out, q)
					break
				}
			}
		}
		return out
	}
}

// GroundExpressOnly is the curated FedEx rate list shown to operators.
var GroundExpressOnly = KeepServices("GROUND", "EXPRESS")
