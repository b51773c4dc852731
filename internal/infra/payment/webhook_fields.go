package payment

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FlattenFields reduces a decoded webhook JSON body to the flat string map the
// signers and parsers operate on. Nested objects are flattened with dotted
// keys ("order.order_invoice_number"); numbers keep their wire form so
// signatures stay byte-stable.
func FlattenFields(body map[string]any) map[string]string {
	out := make(map[string]string, len(body))
	flattenInto(out, "", body)
	return out
}

func flattenInto(out map[string]string, prefix string, body map[string]any) {
	for k, v := range body {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch t := v.(type) {
		case map[string]any:
			flattenInto(out, key, t)
		case string:
			out[key] = t
		case json.Number:
			out[key] = t.String()
		case bool:
			out[key] = strconv.FormatBool(t)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprintf("%v", t)
		}
	}
}
