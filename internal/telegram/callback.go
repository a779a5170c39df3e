package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/avdnv/exchange-miniapp/internal/service"
)

// Callback payloads are "order:<verb>:<id>". Encoding and decoding both live
// here so no string parsing leaks past the transport boundary.

const callbackPrefix = "order"

func encodeAction(verb string, orderID int64) string {
	return fmt.Sprintf("%s:%s:%d", callbackPrefix, verb, orderID)
}

// DecodeCallback parses raw callback data into a tagged admin action.
func DecodeCallback(data string) (service.AdminAction, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != callbackPrefix {
		return service.AdminAction{}, fmt.Errorf("unrecognized callback payload %q", data)
	}

	orderID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || orderID <= 0 {
		return service.AdminAction{}, fmt.Errorf("invalid order id in callback payload %q", data)
	}

	switch parts[1] {
	case "confirm":
		return service.AdminAction{Kind: service.ActionConfirm, OrderID: orderID}, nil
	case "reject":
		return service.AdminAction{Kind: service.ActionReject, OrderID: orderID}, nil
	default:
		return service.AdminAction{}, fmt.Errorf("unknown callback verb %q", parts[1])
	}
}
