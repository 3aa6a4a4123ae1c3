package transport

import jsoniter "github.com/json-iterator/go"

// jsonDeserializer is the default Deserializer, backed by json-iterator's
// ConfigCompatibleWithStandardLibrary mode so struct tags and decoding
// behavior match encoding/json exactly while avoiding its reflection
// overhead on the hot subscribe-response path.
type jsonDeserializer struct {
	api jsoniter.API
}

// NewJSONDeserializer constructs the default Deserializer.
func NewJSONDeserializer() Deserializer {
	return &jsonDeserializer{api: jsoniter.ConfigCompatibleWithStandardLibrary}
}

// Deserialize implements Deserializer.
func (d *jsonDeserializer) Deserialize(data []byte, target interface{}) error {
	return d.api.Unmarshal(data, target)
}
