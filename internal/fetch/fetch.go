package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// Decoder turns a 2xx response body into records.
type Decoder[T any] func(body []byte) ([]T, error)

// Fetch issues one GET for path and decodes the body. Every failure is a
// *Error; nothing is retried.
func Fetch[T any](ctx context.Context, client *Client, path string, params url.Values, decode Decoder[T]) ([]T, error) {
	if decode == nil {
		return nil, errors.New("fetch: nil decoder")
	}

	start := time.Now()
	body, err := client.Get(ctx, path, params)
	if err != nil {
		return nil, err
	}

	items, err := decode(body)
	if err != nil {
		target, _ := client.BuildURL(path, params)
		fe := parseError(target, err)
		client.fail(Endpoint(path), fe)
		return nil, fe
	}
	if items == nil {
		items = []T{}
	}

	client.metrics.ObserveRecords(Endpoint(path), len(items))
	client.log.Debug().
		Str("endpoint", Endpoint(path)).
		Int("records", len(items)).
		Dur("took", time.Since(start)).
		Msg("fetch decoded")
	return items, nil
}

var errNotArray = errors.New("expected a JSON array, got null")

// decodeArray is json.Unmarshal into a slice that also rejects a literal
// null, which would otherwise decode to an empty collection.
func decodeArray[T any](raw []byte) ([]T, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, errNotArray
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// JSONArray decodes a bare JSON array.
func JSONArray[T any]() Decoder[T] {
	return func(body []byte) ([]T, error) {
		return decodeArray[T](body)
	}
}

// JSONField decodes the array stored under key in a JSON object. A bare
// array is accepted as well, since some deployments drop the envelope.
func JSONField[T any](key string) Decoder[T] {
	return func(body []byte) ([]T, error) {
		trimmed := bytes.TrimSpace(body)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			return JSONArray[T]()(trimmed)
		}

		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		raw, ok := envelope[key]
		if !ok {
			return nil, fmt.Errorf("response has no %q field", key)
		}

		items, err := decodeArray[T](raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		return items, nil
	}
}

// JSONObject decodes a single object as a one-record collection.
func JSONObject[T any]() Decoder[T] {
	return func(body []byte) ([]T, error) {
		trimmed := bytes.TrimSpace(body)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, errors.New("expected a JSON object")
		}
		var item T
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return nil, err
		}
		return []T{item}, nil
	}
}

// Feed decodes a GTFS-realtime FeedMessage and hands it to convert.
func Feed[T any](convert func(*gtfs.FeedMessage) []T) Decoder[T] {
	return func(body []byte) ([]T, error) {
		message := &gtfs.FeedMessage{}
		if err := proto.Unmarshal(body, message); err != nil {
			return nil, err
		}
		if message.GetHeader() == nil {
			return nil, errors.New("feed message has no header")
		}
		return convert(message), nil
	}
}
