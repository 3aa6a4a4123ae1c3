package wire

import (
	"encoding/json"
	"testing"
)

// Literal body from spec.md §8 scenario 1.
func TestSubscribeResponseDecode(t *testing.T) {
	body := []byte(`{"t":{"t":"15","r":1},"m":[{"e":0,"c":"test","d":"hi","p":{"t":"15","r":1},"k":"demo"}]}`)

	var resp SubscribeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Cursor.Timetoken != "15" || resp.Cursor.Region != 1 {
		t.Fatalf("unexpected cursor %+v", resp.Cursor)
	}
	if len(resp.Messages) != 1 {
		t.Fatalf("expected one update, got %d", len(resp.Messages))
	}
	u := resp.Messages[0]
	if UpdateKind(u.Kind) != UpdatePublish {
		t.Fatalf("expected publish update, got %d", u.Kind)
	}
	if u.Channel != "test" || u.Payload != "hi" || u.SubKey != "demo" {
		t.Fatalf("unexpected update %+v", u)
	}
	if u.MessageCur.Timetoken != "15" || u.MessageCur.Region != 1 {
		t.Fatalf("unexpected per-message cursor %+v", u.MessageCur)
	}
}

func TestSubscribeResponseEmptyMessages(t *testing.T) {
	var resp SubscribeResponse
	if err := json.Unmarshal([]byte(`{"t":{"t":"16","r":1},"m":[]}`), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Cursor.Timetoken != "16" || len(resp.Messages) != 0 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

// Timetokens are 17-digit decimal strings and must round-trip losslessly.
func TestTimetokenRoundTripsAsString(t *testing.T) {
	body := []byte(`{"t":{"t":"17132179163483845","r":23},"m":[]}`)
	var resp SubscribeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Cursor.Timetoken != "17132179163483845" {
		t.Fatalf("timetoken did not round-trip: %q", resp.Cursor.Timetoken)
	}
}

func TestPublishResponseDecode(t *testing.T) {
	var resp PublishResponse
	if err := json.Unmarshal([]byte(`[1,"Sent","17132179163483845"]`), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != 1 || resp.StatusMsg != "Sent" || resp.Timetoken != "17132179163483845" {
		t.Fatalf("unexpected publish response %+v", resp)
	}
}

func TestSubscribeRequestPathAndQuery(t *testing.T) {
	req := SubscribeRequest{
		SubscribeKey:     "demo",
		Channels:         []string{"a", "b"},
		ChannelGroups:    []string{"g1"},
		Timetoken:        "100",
		Region:           3,
		HeartbeatSeconds: 300,
		FilterExpr:       "uuid != 'me'",
	}
	if got := req.Path(); got != "/v2/subscribe/demo/a,b/0" {
		t.Fatalf("unexpected path %q", got)
	}
	q := req.Query()
	if q.Get("tt") != "100" || q.Get("tr") != "3" {
		t.Fatalf("cursor query wrong: tt=%q tr=%q", q.Get("tt"), q.Get("tr"))
	}
	if q.Get("channel-group") != "g1" || q.Get("heartbeat") != "300" || q.Get("filter-expr") != "uuid != 'me'" {
		t.Fatalf("unexpected query %v", q)
	}
}

func TestSubscribeRequestNoChannelsUsesDash(t *testing.T) {
	req := SubscribeRequest{SubscribeKey: "demo", ChannelGroups: []string{"g1"}, Timetoken: "0"}
	if got := req.Path(); got != "/v2/subscribe/demo/-/0" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestHeartbeatRequestStateEncoding(t *testing.T) {
	req := HeartbeatRequest{
		SubscribeKey:     "demo",
		Channels:         []string{"room"},
		HeartbeatSeconds: 300,
		State:            map[string]interface{}{"room": map[string]interface{}{"mood": "happy"}},
	}
	if got := req.Path(); got != "/v2/presence/sub-key/demo/channel/room/heartbeat" {
		t.Fatalf("unexpected path %q", got)
	}
	q := req.Query()
	var decoded map[string]map[string]string
	if err := json.Unmarshal([]byte(q.Get("state")), &decoded); err != nil {
		t.Fatalf("state is not valid JSON: %v", err)
	}
	if decoded["room"]["mood"] != "happy" {
		t.Fatalf("state did not round-trip: %v", decoded)
	}
}

func TestLeaveRequestShape(t *testing.T) {
	req := LeaveRequest{SubscribeKey: "demo", Channels: []string{"room"}, ChannelGroups: []string{"g"}}
	if got := req.Path(); got != "/v2/presence/sub-key/demo/channel/room/leave" {
		t.Fatalf("unexpected path %q", got)
	}
	if got := req.Query().Get("channel-group"); got != "g" {
		t.Fatalf("unexpected channel-group %q", got)
	}
}

func TestUnknownUpdateKindStillDecodes(t *testing.T) {
	body := []byte(`{"t":{"t":"20","r":1},"m":[{"e":42,"c":"test","d":"future"}]}`)
	var resp SubscribeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Messages[0].Kind != 42 {
		t.Fatalf("unknown kind not preserved: %d", resp.Messages[0].Kind)
	}
}
