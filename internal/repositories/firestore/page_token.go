package firestore

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// pageToken is the opaque continuation cursor shared by the list endpoints.
// Each listing populates only the fields matching its sort keys.
type pageToken struct {
	Name      string    `json:"name,omitempty"`
	Code      string    `json:"code,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	SaleDate  time.Time `json:"saleDate,omitempty"`
}

func encodePageToken(token pageToken) (string, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	if err := enc.Encode(token); err != nil {
		return "", fmt.Errorf("encode page token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes.TrimSpace(buf.Bytes())), nil
}

func decodePageToken(encoded string) (pageToken, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return pageToken{}, fmt.Errorf("decode page token: %w", err)
	}
	var token pageToken
	if err := json.Unmarshal(data, &token); err != nil {
		return pageToken{}, fmt.Errorf("decode page token json: %w", err)
	}
	return token, nil
}
