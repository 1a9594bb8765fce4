package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// UserMessage is the wire shape of a directory profile.
type UserMessage struct {
	ToshiID        string  `json:"toshi_id"`
	Username       string  `json:"username"`
	PaymentAddress string  `json:"payment_address"`
	Name           string  `json:"name,omitempty"`
	About          string  `json:"about,omitempty"`
	Location       string  `json:"location,omitempty"`
	Avatar         string  `json:"avatar,omitempty"`
	IsApp          bool    `json:"is_app"`
	Reputation     float64 `json:"reputation_score"`
}

// ServerTimeMessage is returned by GetTimestamp. Token is opaque to clients
// and must be echoed back with a report.
type ServerTimeMessage struct {
	Timestamp int64  `json:"timestamp"`
	Token     string `json:"token"`
}

// ReportMessage is the ReportUser request.
type ReportMessage struct {
	UserAddress string `json:"user_address"`
	Details     string `json:"details"`
	Timestamp   int64  `json:"timestamp"`
	Token       string `json:"token"`
}

// AvatarUploadMessage is the GetAvatarUploadURL response.
type AvatarUploadMessage struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// EncodeStruct converts a JSON-tagged DTO to a structpb.Struct.
func EncodeStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return s, nil
}

// DecodeStruct fills the JSON-tagged DTO pointed to by v from s.
func DecodeStruct(s *structpb.Struct, v any) error {
	if s == nil {
		return fmt.Errorf("decode: empty message")
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// EncodeList converts a slice of DTOs to a structpb.ListValue. A nil slice
// becomes an empty list.
func EncodeList[T any](items []T) (*structpb.ListValue, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode list: %w", err)
	}
	l := &structpb.ListValue{}
	if err := protojson.Unmarshal(b, l); err != nil {
		return nil, fmt.Errorf("encode list: %w", err)
	}
	return l, nil
}

// DecodeList decodes l into a slice of T.
func DecodeList[T any](l *structpb.ListValue) ([]T, error) {
	out := []T{}
	if l == nil {
		return out, nil
	}
	b, err := protojson.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return out, nil
}
