package telegram

import (
	"testing"

	"github.com/avdnv/exchange-miniapp/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCallback(t *testing.T) {
	action, err := DecodeCallback("order:confirm:42")
	require.NoError(t, err)
	assert.Equal(t, service.ActionConfirm, action.Kind)
	assert.Equal(t, int64(42), action.OrderID)

	action, err = DecodeCallback("order:reject:7")
	require.NoError(t, err)
	assert.Equal(t, service.ActionReject, action.Kind)
	assert.Equal(t, int64(7), action.OrderID)
}

func TestDecodeCallbackRoundTrip(t *testing.T) {
	action, err := DecodeCallback(encodeAction("confirm", 123456))
	require.NoError(t, err)
	assert.Equal(t, service.ActionConfirm, action.Kind)
	assert.Equal(t, int64(123456), action.OrderID)
}

func TestDecodeCallbackRejectsMalformedPayloads(t *testing.T) {
	cases := []string{
		"",
		"order",
		"order:confirm",
		"order:confirm:",
		"order:confirm:abc",
		"order:confirm:-5",
		"order:confirm:0",
		"order:approve:42",
		"payment:confirm:42",
		"order:confirm:42:extra",
	}
	for _, data := range cases {
		_, err := DecodeCallback(data)
		assert.Error(t, err, "payload %q", data)
	}
}

func TestOrderKeyboardCarriesActionPayloads(t *testing.T) {
	kb := OrderKeyboard(42)
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 2)

	confirm := kb.InlineKeyboard[0][0]
	reject := kb.InlineKeyboard[0][1]
	require.NotNil(t, confirm.CallbackData)
	require.NotNil(t, reject.CallbackData)
	assert.Equal(t, "order:confirm:42", *confirm.CallbackData)
	assert.Equal(t, "order:reject:42", *reject.CallbackData)
}
