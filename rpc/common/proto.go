package common

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dArray/lib/store"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Key   string   `json:"key,omitempty"`   // Used for: Set, Get, Has, Delete, Keys (prefix)
	Value []byte   `json:"value,omitempty"` // Used for: Set (request), Get (response)
	Keys  []string `json:"keys,omitempty"`  // Used for: Keys (response)

	// Response only fields
	Ok   bool          `json:"ok,omitempty"`   // Used for: Get, Has responses
	Code store.RetCode `json:"code,omitempty"` // store.RetCode of the error, RetCSuccess if there is none
	Err  string        `json:"err,omitempty"`  // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Used for: GetDBInfo (response, json encoded db.DatabaseInfo)
}

// setErr fills the error fields of a response
func (m *Message) setErr(err error) *Message {
	if err != nil {
		m.Code = store.CodeOf(err)
		m.Err = err.Error()
	}
	return m
}

// AsError converts the error fields of a response back into an error.
// Errors with a store.RetCode are returned as *store.Error, nil is returned if
// the message carries no error.
func (m *Message) AsError() error {
	if m.MsgType != MsgTError && m.Err == "" {
		return nil
	}
	if m.Code != store.RetCSuccess {
		return store.NewError(m.Code, m.Err)
	}
	return fmt.Errorf("%s", m.Err)
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewSetRequest creates a new Set request
func NewSetRequest(key string, value []byte) *Message {
	return &Message{
		MsgType: MsgTKVSet,
		Key:     key,
		Value:   value,
	}
}

// NewSetResponse creates a new Set response
func NewSetResponse(err error) *Message {
	return (&Message{MsgType: MsgTKVSet}).setErr(err)
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVDelete,
		Key:     key,
	}
}

// NewDeleteResponse creates a new Delete response
func NewDeleteResponse(err error) *Message {
	return (&Message{MsgType: MsgTKVDelete}).setErr(err)
}

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVGet,
		Key:     key,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(value []byte, ok bool, err error) *Message {
	return (&Message{
		MsgType: MsgTKVGet,
		Ok:      ok,
		Value:   value,
	}).setErr(err)
}

// NewHasRequest creates a new Has request
func NewHasRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVHas,
		Key:     key,
	}
}

// NewHasResponse creates a new Has response
func NewHasResponse(ok bool, err error) *Message {
	return (&Message{
		MsgType: MsgTKVHas,
		Ok:      ok,
	}).setErr(err)
}

// NewKeysRequest creates a new Keys request for all keys starting with prefix
func NewKeysRequest(prefix string) *Message {
	return &Message{
		MsgType: MsgTKVKeys,
		Key:     prefix,
	}
}

// NewKeysResponse creates a new Keys response
func NewKeysResponse(keys []string, err error) *Message {
	if keys == nil && err == nil {
		keys = []string{}
	}
	return (&Message{
		MsgType: MsgTKVKeys,
		Keys:    keys,
	}).setErr(err)
}

// NewDBInfoRequest creates a new GetDBInfo request
func NewDBInfoRequest() *Message {
	return &Message{
		MsgType: MsgTKVInfo,
	}
}

// NewDBInfoResponse creates a new GetDBInfo response, the info is json encoded into Meta
func NewDBInfoResponse(info []byte, err error) *Message {
	return (&Message{
		MsgType: MsgTKVInfo,
		Meta:    info,
	}).setErr(err)
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTKVSet:
		return "set"
	case MsgTKVDelete:
		return "delete"
	case MsgTKVGet:
		return "get"
	case MsgTKVHas:
		return "has"
	case MsgTKVKeys:
		return "keys"
	case MsgTKVInfo:
		return "info"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "set":
		*t = MsgTKVSet
	case "delete":
		*t = MsgTKVDelete
	case "get":
		*t = MsgTKVGet
	case "has":
		*t = MsgTKVHas
	case "keys":
		*t = MsgTKVKeys
	case "info":
		*t = MsgTKVInfo
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IStore operations

	MsgTKVSet    // Set a key-value pair
	MsgTKVDelete // Delete a key-value pair
	MsgTKVGet    // Get a value by key
	MsgTKVHas    // Check if a key exists
	MsgTKVKeys   // List all keys with a prefix
	MsgTKVInfo   // Get information about the underlying database
)
