package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"

	"github.com/lixenwraith/radarterm/msgpack"
)

var errJSONTrailing = errors.New("trailing data after JSON value")

// FromJSON converts a JSON document into the same value model the binary decoder yields
// Object key order is preserved and integer literals stay exact
func FromJSON(data []byte) (msgpack.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := jsonValue(dec, 0)
	if err != nil {
		return msgpack.Value{}, fmt.Errorf("json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return msgpack.Value{}, fmt.Errorf("json: %w", errJSONTrailing)
	}
	return v, nil
}

func jsonValue(dec *json.Decoder, depth int) (msgpack.Value, error) {
	if depth > msgpack.MaxDepth {
		return msgpack.Value{}, msgpack.ErrTooDeep
	}
	tok, err := dec.Token()
	if err != nil {
		return msgpack.Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return msgpack.Nil(), nil
	case bool:
		return msgpack.Bool(t), nil
	case string:
		return msgpack.String(t), nil
	case json.Number:
		return jsonNumber(t)
	case json.Delim:
		switch t {
		case '[':
			var items []msgpack.Value
			for dec.More() {
				v, err := jsonValue(dec, depth+1)
				if err != nil {
					return msgpack.Value{}, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil {
				return msgpack.Value{}, err
			}
			return msgpack.Array(items...), nil
		case '{':
			var pairs []msgpack.Pair
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return msgpack.Value{}, err
				}
				key, _ := kt.(string)
				v, err := jsonValue(dec, depth+1)
				if err != nil {
					return msgpack.Value{}, err
				}
				pairs = append(pairs, msgpack.P(key, v))
			}
			if _, err := dec.Token(); err != nil {
				return msgpack.Value{}, err
			}
			return msgpack.Map(pairs...), nil
		}
	}
	return msgpack.Value{}, fmt.Errorf("unexpected token %v", tok)
}

// jsonNumber keeps integer literals exact and parses anything else as float64
func jsonNumber(n json.Number) (msgpack.Value, error) {
	s := n.String()
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return msgpack.Int(i), nil
	}
	if b, ok := new(big.Int).SetString(s, 10); ok {
		return msgpack.BigInt(b), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return msgpack.Value{}, err
	}
	return msgpack.Float64(f), nil
}
