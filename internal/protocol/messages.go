// Package protocol defines the JSON frames exchanged over the match socket and
// the per-viewer filtering of the action log.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/nenshoukei/zombals-sub000/internal/game/action"
)

// RequestType discriminates client frames.
type RequestType string

const (
	RequestLobbyEnter       RequestType = "LOBBY_ENTER"
	RequestLobbyLeave       RequestType = "LOBBY_LEAVE"
	RequestGameStart        RequestType = "GAME_START"
	RequestGameCommand      RequestType = "GAME_COMMAND"
	RequestGameActionDemand RequestType = "GAME_ACTION_DEMAND"
)

// Request is a decoded client frame.
type Request interface {
	RequestType() RequestType
}

type LobbyEnter struct {
	ClientVersion string `json:"clientVersion"`
	DeckID        string `json:"deckId"`
	PassCode      string `json:"passCode,omitempty"`
}

type LobbyLeave struct{}

type GameStart struct{}

// GameCommand wraps one match command. The command body is decoded by
// DecodeCommand.
type GameCommand struct {
	Command json.RawMessage `json:"command"`
}

// GameActionDemand asks for the log slice [FromIndex, ToIndex). A nil ToIndex
// means the end of the log.
type GameActionDemand struct {
	FromIndex int  `json:"fromIndex"`
	ToIndex   *int `json:"toIndex,omitempty"`
}

func (LobbyEnter) RequestType() RequestType       { return RequestLobbyEnter }
func (LobbyLeave) RequestType() RequestType       { return RequestLobbyLeave }
func (GameStart) RequestType() RequestType        { return RequestGameStart }
func (GameCommand) RequestType() RequestType      { return RequestGameCommand }
func (GameActionDemand) RequestType() RequestType { return RequestGameActionDemand }

// DecodeRequest decodes a client frame by its type tag.
func DecodeRequest(data []byte) (Request, error) {
	var head struct {
		Type RequestType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to read request type: %w", err)
	}

	switch head.Type {
	case RequestLobbyEnter:
		return decodeRequest[LobbyEnter](head.Type, data)
	case RequestLobbyLeave:
		return LobbyLeave{}, nil
	case RequestGameStart:
		return GameStart{}, nil
	case RequestGameCommand:
		return decodeRequest[GameCommand](head.Type, data)
	case RequestGameActionDemand:
		return decodeRequest[GameActionDemand](head.Type, data)
	default:
		return nil, fmt.Errorf("unknown request type %q", head.Type)
	}
}

func decodeRequest[T Request](t RequestType, data []byte) (Request, error) {
	var r T
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode %s request: %w", t, err)
	}
	return r, nil
}

// ResponseType discriminates server frames.
type ResponseType string

const (
	ResponseDenied       ResponseType = "DENIED"
	ResponseLobbyWaiting ResponseType = "LOBBY_WAITING"
	ResponseGameWaiting  ResponseType = "GAME_WAITING"
	ResponseGameStart    ResponseType = "GAME_START"
	ResponseGameAction   ResponseType = "GAME_ACTION"
	ResponseReady        ResponseType = "READY"
)

// Response is a server frame.
type Response interface {
	ResponseType() ResponseType
}

// DenyReason says why a request was refused.
type DenyReason string

const (
	ReasonVersionMismatch DenyReason = "VERSION_MISMATCH"
	ReasonMaintenance     DenyReason = "MAINTENANCE"
	ReasonExpired         DenyReason = "EXPIRED"
	ReasonNoGame          DenyReason = "NO_GAME"
	ReasonGameEnded       DenyReason = "GAME_ENDED"
	ReasonForbidden       DenyReason = "FORBIDDEN"
	ReasonError           DenyReason = "ERROR"
)

type Denied struct {
	Reason    DenyReason `json:"reason"`
	Message   string     `json:"message"`
	CommandID *int       `json:"commandId,omitempty"`
}

// LobbyWaiting is sent while the user waits for an opponent. WaitUntil is in
// Unix milliseconds.
type LobbyWaiting struct {
	WaitUntil int64 `json:"waitUntil"`
}

// GameWaiting asks the user to accept a found match before WaitUntil.
type GameWaiting struct {
	WaitUntil int64 `json:"waitUntil"`
}

// GameStarted announces the participants in leader order.
type GameStarted struct {
	UserIDs []string `json:"userIds"`
}

type GameAction struct {
	Actions   []action.Action `json:"actions"`
	FromIndex int             `json:"fromIndex"`
}

type Ready struct{}

func (Denied) ResponseType() ResponseType       { return ResponseDenied }
func (LobbyWaiting) ResponseType() ResponseType { return ResponseLobbyWaiting }
func (GameWaiting) ResponseType() ResponseType  { return ResponseGameWaiting }
func (GameStarted) ResponseType() ResponseType  { return ResponseGameStart }
func (GameAction) ResponseType() ResponseType   { return ResponseGameAction }
func (Ready) ResponseType() ResponseType        { return ResponseReady }

// Deny builds a DENIED response.
func Deny(reason DenyReason, message string) Denied {
	return Denied{Reason: reason, Message: message}
}

// DenyCommand builds a DENIED response answering command id.
func DenyCommand(reason DenyReason, message string, id int) Denied {
	return Denied{Reason: reason, Message: message, CommandID: &id}
}

// EncodeResponse marshals r with its type tag.
func EncodeResponse(r Response) ([]byte, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", r.ResponseType(), err)
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", r.ResponseType(), err)
	}
	fields["type"], _ = json.Marshal(r.ResponseType())
	return json.Marshal(fields)
}

// DecodeResponse decodes a server frame. It is used by clients and tests.
func DecodeResponse(data []byte) (Response, error) {
	var head struct {
		Type ResponseType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to read response type: %w", err)
	}
	switch head.Type {
	case ResponseDenied:
		return decodeResponse[Denied](data)
	case ResponseLobbyWaiting:
		return decodeResponse[LobbyWaiting](data)
	case ResponseGameWaiting:
		return decodeResponse[GameWaiting](data)
	case ResponseGameStart:
		return decodeResponse[GameStarted](data)
	case ResponseGameAction:
		var r struct {
			Actions   action.Log `json:"actions"`
			FromIndex int        `json:"fromIndex"`
		}
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return GameAction{Actions: r.Actions, FromIndex: r.FromIndex}, nil
	case ResponseReady:
		return Ready{}, nil
	default:
		return nil, fmt.Errorf("unknown response type %q", head.Type)
	}
}

func decodeResponse[T Response](data []byte) (Response, error) {
	var r T
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", r.ResponseType(), err)
	}
	return r, nil
}
