package prompts

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"stock-analysis-agent/internal/types"
)

var fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// ParsePMInstructions turns the project manager's raw answer into team notes.
// A fenced ```json block is tried first, then the whole string. It never fails:
// anything unparseable yields an empty map.
func ParsePMInstructions(raw any) types.PMInstructions {
	switch v := raw.(type) {
	case types.PMInstructions:
		return v
	case map[string]string:
		return types.PMInstructions(v)
	case map[string]any:
		return stringify(v)
	case string:
		return parsePMString(v)
	default:
		return types.PMInstructions{}
	}
}

func parsePMString(s string) types.PMInstructions {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.PMInstructions{}
	}

	payload := s
	if m := fencedJSONRe.FindStringSubmatch(s); m != nil {
		payload = m[1]
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return types.PMInstructions{}
	}
	return stringify(decoded)
}

func stringify(m map[string]any) types.PMInstructions {
	out := make(types.PMInstructions, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = t
		default:
			if b, err := json.Marshal(t); err == nil {
				out[k] = string(b)
			} else {
				out[k] = fmt.Sprint(t)
			}
		}
	}
	return out
}
