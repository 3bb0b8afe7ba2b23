package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Token is the decoded form of a cursor: the sort value of the last item
// the client saw, plus its id for tie-breaking.
type Token struct {
	Field string
	Value any
	ID    string
}

// EncodeToken packs a cursor position into an opaque base64 string.
//
// The wire shape is JSON: {"<field>": <value>, "id": "<id>"}.
// time.Time values are encoded as RFC3339Nano strings.
func EncodeToken(field string, value any, id string) string {
	if t, ok := value.(time.Time); ok {
		value = t.UTC().Format(time.RFC3339Nano)
	}

	payload, err := json.Marshal(map[string]any{
		field: value,
		"id":  id,
	})
	if err != nil {
		// Only unmarshallable values can land here; callers pass
		// times, numbers, and strings.
		return ""
	}
	return base64.StdEncoding.EncodeToString(payload)
}

// DecodeToken unpacks a cursor produced by EncodeToken.
//
// It returns an error for undecodable base64, invalid JSON, or a token
// that does not carry both the expected sort field and an id. Callers
// treat any error as "fall back to offset mode".
func DecodeToken(token, field string) (Token, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Token{}, fmt.Errorf("decoding cursor: %w", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Token{}, fmt.Errorf("parsing cursor: %w", err)
	}

	value, ok := payload[field]
	if !ok {
		return Token{}, fmt.Errorf("cursor missing sort field %q", field)
	}
	id, ok := payload["id"].(string)
	if !ok || id == "" {
		return Token{}, fmt.Errorf("cursor missing id")
	}

	return Token{Field: field, Value: value, ID: id}, nil
}
