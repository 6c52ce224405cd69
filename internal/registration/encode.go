package registration

import (
	"encoding/json"

	"github.com/amwa-nmos/node-agent/internal/resource"
)

// resourceBody mirrors make_registration_request_body: the registry wants
// {"type": <singular type>, "data": <resource>}.
type resourceBody struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func marshalResource(t resource.Type, data map[string]any) []byte {
	b, _ := json.Marshal(resourceBody{Type: string(t), Data: data})
	return b
}
