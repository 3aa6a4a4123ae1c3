package pubnub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pubnub/go/v7/pam"
	"github.com/pubnub/go/v7/wire"
)

// Publish sends payload on channel, returning the timetoken the network
// assigned it. Errors propagate to the caller verbatim — publish is a
// non-managed one-shot call, never retried or reported through the
// Subscribe Event Engine (spec.md §7).
func (p *PubNub) Publish(ctx context.Context, channel string, payload interface{}) (string, error) {
	if p.config.PublishKey == "" {
		return "", configError("publish key is required for publish")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", newError(ErrSerialization, "encode publish payload", err)
	}
	if p.config.CryptoModule != nil {
		encrypted, err := p.config.CryptoModule.Encrypt(body)
		if err != nil {
			return "", newError(ErrEncryption, "encrypt publish payload", err)
		}
		body, err = json.Marshal(base64.StdEncoding.EncodeToString(encrypted))
		if err != nil {
			return "", newError(ErrSerialization, "encode encrypted payload", err)
		}
	}

	path := fmt.Sprintf("/publish/%s/%s/0/%s/0/%s",
		p.config.PublishKey, p.config.SubscribeKey, url.PathEscape(channel), url.PathEscape(string(body)))
	q := p.baseQuery()

	var resp wire.PublishResponse
	if err := p.sendJSON(ctx, http.MethodGet, path, q, p.config.RequestTimeout, &resp); err != nil {
		return "", err
	}
	return resp.Timetoken, nil
}

// grantResponse is the minimal shape of a grant reply this client parses:
// only the issued token, per spec.md §1 Non-goals ("access-token
// grant/revoke wire shapes beyond their envelope" are out of scope).
type grantResponse struct {
	Payload struct {
		Token string `json:"token"`
	} `json:"payload"`
}

// Grant requests a PAM token with the permissions in req, returning the
// opaque token string (parseable offline via pam.ParseToken).
func (p *PubNub) Grant(ctx context.Context, req pam.GrantRequest) (string, error) {
	if p.config.SecretKey == "" {
		return "", configError("secret key is required for grant")
	}
	q := req.Query()
	mergeQuery(q, p.baseQuery())
	signature, err := pam.SignGrant(p.config.SecretKey, p.config.SubscribeKey, p.config.PublishKey, pam.OperationGrant, q)
	if err != nil {
		return "", newError(ErrConfiguration, "sign grant request", err)
	}
	q.Set("signature", signature)

	path := fmt.Sprintf("/v2/auth/grant/sub-key/%s", p.config.SubscribeKey)
	var resp grantResponse
	if err := p.sendJSON(ctx, http.MethodGet, path, q, p.config.RequestTimeout, &resp); err != nil {
		return "", err
	}
	return resp.Payload.Token, nil
}

// Revoke invalidates a previously granted token's permissions.
func (p *PubNub) Revoke(ctx context.Context, req pam.GrantRequest) error {
	if p.config.SecretKey == "" {
		return configError("secret key is required for revoke")
	}
	q := req.Query()
	mergeQuery(q, p.baseQuery())
	signature, err := pam.SignGrant(p.config.SecretKey, p.config.SubscribeKey, p.config.PublishKey, pam.OperationRevoke, q)
	if err != nil {
		return newError(ErrConfiguration, "sign revoke request", err)
	}
	q.Set("signature", signature)

	path := fmt.Sprintf("/v2/auth/revoke/sub-key/%s", p.config.SubscribeKey)
	return p.sendJSON(ctx, http.MethodGet, path, q, p.config.RequestTimeout, nil)
}

// HereNow reports current occupancy for the given channels/groups.
func (p *PubNub) HereNow(ctx context.Context, channels, groups []string) (wire.HereNowResponse, error) {
	q := p.baseQuery()
	if len(groups) > 0 {
		q.Set("channel-group", strings.Join(groups, ","))
	}
	path := fmt.Sprintf("/v2/presence/sub-key/%s/channel/%s", p.config.SubscribeKey, channelPathSegment(channels))
	var resp wire.HereNowResponse
	if err := p.sendJSON(ctx, http.MethodGet, path, q, p.config.RequestTimeout, &resp); err != nil {
		return wire.HereNowResponse{}, err
	}
	return resp, nil
}

// WhereNow reports the channels userID currently occupies.
func (p *PubNub) WhereNow(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		userID = p.config.UserID
	}
	q := p.baseQuery()
	path := fmt.Sprintf("/v2/presence/sub-key/%s/uuid/%s", p.config.SubscribeKey, url.PathEscape(userID))
	var resp wire.WhereNowResponse
	if err := p.sendJSON(ctx, http.MethodGet, path, q, p.config.RequestTimeout, &resp); err != nil {
		return nil, err
	}
	return resp.Payload.Channels, nil
}

// GetState fetches this client's currently stored per-channel presence
// state straight from the network (it does not consult the local cache
// SetState maintains for heartbeats).
func (p *PubNub) GetState(ctx context.Context, channels []string) (map[string]interface{}, error) {
	q := p.baseQuery()
	path := fmt.Sprintf("/v2/presence/sub-key/%s/channel/%s/uuid/%s",
		p.config.SubscribeKey, channelPathSegment(channels), url.PathEscape(p.config.UserID))
	var resp wire.StateResponse
	if err := p.sendJSON(ctx, http.MethodGet, path, q, p.config.RequestTimeout, &resp); err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// setStateRemote pushes value as this client's state for channels to the
// network; PubNub.SetState wraps this with the local cache update used by
// subsequent heartbeats.
func (p *PubNub) setStateRemote(ctx context.Context, channels []string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return newError(ErrSerialization, "encode state", err)
	}
	q := p.baseQuery()
	q.Set("state", string(data))
	path := fmt.Sprintf("/v2/presence/sub-key/%s/channel/%s/uuid/%s/data",
		p.config.SubscribeKey, channelPathSegment(channels), url.PathEscape(p.config.UserID))
	return p.sendJSON(ctx, http.MethodGet, path, q, p.config.RequestTimeout, nil)
}

func mergeQuery(dst, src url.Values) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Set(k, v)
		}
	}
}
