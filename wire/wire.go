// Package wire defines the request/response shapes the engines and one-shot
// calls exchange with the network, per spec.md §4.6.
package wire

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// jsonUnmarshal is used only by PublishResponse's custom decoder below; the
// Deserializer abstraction (transport package) governs every other wire
// shape, but publish's positional-array reply needs its own decode step
// regardless of which Deserializer is configured.
func jsonUnmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

// UpdateKind enumerates the numeric "e" discriminant on a subscribe update.
type UpdateKind int

const (
	UpdatePublish       UpdateKind = 0
	UpdateSignal        UpdateKind = 1
	UpdateAppContext    UpdateKind = 2
	UpdateMessageAction UpdateKind = 3
	UpdateFile          UpdateKind = 4
)

// Unknown wraps an update kind value the client does not recognize, so
// forward-compatible servers never cause a parse failure.
type Unknown struct{ Value int }

// MessageCursor is the per-message {p.t, p.r} cursor on a subscribe update.
type MessageCursor struct {
	Timetoken string `json:"t"`
	Region    int32  `json:"r"`
}

// Update is a single entry in a subscribe response's "m" array.
type Update struct {
	Kind         int             `json:"e"`
	Subscription string          `json:"b,omitempty"`
	Channel      string          `json:"c"`
	Payload      interface{}     `json:"d"`
	UserMeta     interface{}     `json:"u,omitempty"`
	MessageCur   MessageCursor   `json:"p"`
	Issuer       string          `json:"i,omitempty"`
	SubKey       string          `json:"k,omitempty"`
	Flags        int             `json:"f,omitempty"`
}

// ResponseCursor is the {t, r} cursor at the top of a subscribe response.
type ResponseCursor struct {
	Timetoken string `json:"t"`
	Region    int32  `json:"r"`
}

// SubscribeResponse is the decoded body of a successful subscribe call.
type SubscribeResponse struct {
	Cursor   ResponseCursor `json:"t"`
	Messages []Update       `json:"m"`
}

// channelSegment renders a channel list as the URL path segment the
// subscribe and presence endpoints expect: comma-joined, or "-" for none.
func channelSegment(channels []string) string {
	if len(channels) == 0 {
		return "-"
	}
	return strings.Join(channels, ",")
}

// SubscribeRequest carries the parameters needed to build the subscribe
// long-poll call (§4.6): GET /v2/subscribe/{sub_key}/{channels}/0. Client
// identification (uuid, pnsdk, auth) is attached by the caller, not here —
// those travel on every endpoint, not just this one.
type SubscribeRequest struct {
	SubscribeKey     string
	Channels         []string
	ChannelGroups    []string
	Timetoken        string
	Region           int32
	HeartbeatSeconds int
	FilterExpr       string
}

// Path renders the request's URL path.
func (r SubscribeRequest) Path() string {
	return fmt.Sprintf("/v2/subscribe/%s/%s/0", r.SubscribeKey, channelSegment(r.Channels))
}

// Query renders the subscribe-specific query parameters.
func (r SubscribeRequest) Query() url.Values {
	q := url.Values{}
	if len(r.ChannelGroups) > 0 {
		q.Set("channel-group", strings.Join(r.ChannelGroups, ","))
	}
	q.Set("tt", r.Timetoken)
	q.Set("tr", strconv.Itoa(int(r.Region)))
	if r.HeartbeatSeconds > 0 {
		q.Set("heartbeat", strconv.Itoa(r.HeartbeatSeconds))
	}
	if r.FilterExpr != "" {
		q.Set("filter-expr", r.FilterExpr)
	}
	return q
}

// HeartbeatRequest carries the parameters for the presence heartbeat call.
type HeartbeatRequest struct {
	SubscribeKey     string
	Channels         []string
	ChannelGroups    []string
	HeartbeatSeconds int
	State            map[string]interface{}
}

// Path renders the request's URL path.
func (r HeartbeatRequest) Path() string {
	return fmt.Sprintf("/v2/presence/sub-key/%s/channel/%s/heartbeat", r.SubscribeKey, channelSegment(r.Channels))
}

// Query renders the heartbeat-specific query parameters, including the
// per-channel presence state as its JSON "state" value.
func (r HeartbeatRequest) Query() url.Values {
	q := url.Values{}
	if len(r.ChannelGroups) > 0 {
		q.Set("channel-group", strings.Join(r.ChannelGroups, ","))
	}
	if r.HeartbeatSeconds > 0 {
		q.Set("heartbeat", strconv.Itoa(r.HeartbeatSeconds))
	}
	if len(r.State) > 0 {
		if data, err := json.Marshal(r.State); err == nil {
			q.Set("state", string(data))
		}
	}
	return q
}

// LeaveRequest carries the parameters for the presence leave call.
type LeaveRequest struct {
	SubscribeKey  string
	Channels      []string
	ChannelGroups []string
}

// Path renders the request's URL path.
func (r LeaveRequest) Path() string {
	return fmt.Sprintf("/v2/presence/sub-key/%s/channel/%s/leave", r.SubscribeKey, channelSegment(r.Channels))
}

// Query renders the leave-specific query parameters.
func (r LeaveRequest) Query() url.Values {
	q := url.Values{}
	if len(r.ChannelGroups) > 0 {
		q.Set("channel-group", strings.Join(r.ChannelGroups, ","))
	}
	return q
}

// PublishResponse is the decoded `[1,"Sent","<timetoken>"]` publish reply.
type PublishResponse struct {
	Status    int
	StatusMsg string
	Timetoken string
}

// UnmarshalJSON decodes the publish endpoint's positional-array response
// shape into the named PublishResponse fields.
func (r *PublishResponse) UnmarshalJSON(data []byte) error {
	var fields [3]interface{}
	if err := jsonUnmarshal(data, &fields); err != nil {
		return err
	}
	if status, ok := fields[0].(float64); ok {
		r.Status = int(status)
	}
	if msg, ok := fields[1].(string); ok {
		r.StatusMsg = msg
	}
	if tt, ok := fields[2].(string); ok {
		r.Timetoken = tt
	}
	return nil
}

// HereNowOccupant is one occupant entry in a here-now response.
type HereNowOccupant struct {
	UUID  string      `json:"uuid"`
	State interface{} `json:"state,omitempty"`
}

// HereNowChannel is one channel's occupancy in a multi-channel here-now response.
type HereNowChannel struct {
	Occupancy int               `json:"occupancy"`
	Occupants []HereNowOccupant `json:"uuids"`
}

// HereNowResponse is the decoded here-now reply.
type HereNowResponse struct {
	Status    int                       `json:"status"`
	Occupancy int                       `json:"occupancy"`
	Occupants []HereNowOccupant         `json:"uuids"`
	Channels  map[string]HereNowChannel `json:"channels,omitempty"`
}

// WhereNowResponse is the decoded where-now reply.
type WhereNowResponse struct {
	Status  int `json:"status"`
	Payload struct {
		Channels []string `json:"channels"`
	} `json:"payload"`
}

// StateResponse is the decoded reply shared by set-state and get-state.
type StateResponse struct {
	Status  int                    `json:"status"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}
