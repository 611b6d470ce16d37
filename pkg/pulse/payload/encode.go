package payload

import (
	"encoding/json"
	"fmt"
	"time"
)

// Encode renders p as the JSON document integrations forward.
func Encode(p Payload) ([]byte, error) {
	doc, err := Document(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Document returns p as an ordered map of its wire fields.
func Document(p Payload) (*ValueMap, error) {
	if p == nil {
		return nil, fmt.Errorf("payload: nil payload")
	}
	doc := NewValueMap().
		Put("type", string(p.Type())).
		Put("messageId", p.MessageID()).
		Put("timestamp", p.Timestamp().Format(time.RFC3339Nano)).
		Put("userId", p.UserID()).
		Put("anonymousId", p.AnonymousID()).
		Put("context", p.Context()).
		Put("integrations", p.Integrations())

	switch v := p.(type) {
	case *Identify:
		doc.Put("traits", v.Traits())
	case *Track:
		doc.Put("event", v.Event()).Put("properties", v.Properties())
	case *Screen:
		doc.Put("name", v.Name()).Put("category", v.Category()).Put("properties", v.Properties())
	case *Group:
		doc.Put("groupId", v.GroupID()).Put("traits", v.Traits())
	case *Alias:
		doc.Put("previousId", v.PreviousID())
	default:
		return nil, fmt.Errorf("payload: unknown payload type %T", p)
	}
	return doc, nil
}
