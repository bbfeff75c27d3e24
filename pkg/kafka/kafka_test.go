package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Op string `json:"op"`
	ID int    `json:"id"`
}

func TestDecodeJSON(t *testing.T) {
	got, err := DecodeJSON[payload]([]byte(`{"op":"add","id":7}`))
	require.NoError(t, err)
	assert.Equal(t, payload{Op: "add", ID: 7}, got)

	_, err = DecodeJSON[payload]([]byte(`{"op":`))
	assert.ErrorContains(t, err, "decoding kafka message")
}

func TestEncode(t *testing.T) {
	msgs, err := encode([]Event{
		{Key: "search", Value: payload{Op: "find", ID: 1}},
		{Key: "search", Value: map[string]int{"n": 2}},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, []byte("search"), msgs[0].Key)
	assert.JSONEq(t, `{"op":"find","id":1}`, string(msgs[0].Value))

	_, err = encode([]Event{{Key: "bad", Value: make(chan int)}})
	assert.Error(t, err)
}
