package array

import (
	"bytes"
	"encoding/json"
)

// Transformer converts elements between their in-memory form T and the form U
// that is written to the store. OnRead should undo OnWrite, if it does not the
// array returns OnRead(OnWrite(v)) for an added v, before and after a reload.
type Transformer[T, U any] interface {
	OnWrite(value T) U
	OnRead(stored U) T
}

// TransformerFunc adapts a pair of functions to the Transformer interface
type TransformerFunc[T, U any] struct {
	Write func(T) U
	Read  func(U) T
}

func (f TransformerFunc[T, U]) OnWrite(value T) U { return f.Write(value) }
func (f TransformerFunc[T, U]) OnRead(stored U) T { return f.Read(stored) }

// codec encodes a shard (list of elements) to its stored form and back.
// The identity case is a codec like any other.
type codec[T any] struct {
	encode func(values []T) ([]byte, error)
	decode func(data []byte) ([]T, error)
}

func identityCodec[T any]() codec[T] {
	return codec[T]{
		encode: encodeList[T],
		decode: decodeList[T],
	}
}

func transformCodec[T, U any](t Transformer[T, U]) codec[T] {
	return codec[T]{
		encode: func(values []T) ([]byte, error) {
			stored := make([]U, len(values))
			for i, v := range values {
				stored[i] = t.OnWrite(v)
			}
			return encodeList(stored)
		},
		decode: func(data []byte) ([]T, error) {
			stored, err := decodeList[U](data)
			if err != nil {
				return nil, err
			}
			values := make([]T, len(stored))
			for i, s := range stored {
				values[i] = t.OnRead(s)
			}
			return values, nil
		},
	}
}

// encodeList encodes values as a JSON array. A nil list is encoded as "[]".
func encodeList[U any](values []U) ([]byte, error) {
	if values == nil {
		values = []U{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(values); err != nil {
		return nil, err
	}
	// Encode terminates the value with a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// decodeList decodes a JSON array. An empty value decodes to an empty list.
func decodeList[U any](data []byte) ([]U, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []U{}, nil
	}
	var values []U
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	if values == nil {
		// "null"
		values = []U{}
	}
	return values, nil
}
