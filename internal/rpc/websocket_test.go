package rpc

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelines/salevaultd/internal/core/amount"
	"github.com/avelines/salevaultd/internal/core/sale"
	"github.com/avelines/salevaultd/internal/core/tick"
	"github.com/avelines/salevaultd/internal/core/token"
)

func newHubRig(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	clock := tick.NewCounter(10)
	engine, err := sale.New(sale.Config{
		Params: sale.Params{
			Price:          100,
			FeeRate:        5000,
			EscrowDuration: 50,
			Owner:          rigOwner,
			TreasuryRole:   rigTreasury,
			PoolRole:       rigPool,
			TreasuryToken:  rigToken,
		},
		Clock:  clock,
		Tokens: token.NewMemLedger(),
		Vault:  token.NewMemVault(),
		Self:   rigSelf,
	})
	require.NoError(t, err)

	hub := NewHub(NewService(engine, nil, clock, "test"), nil)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return hub, conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestHubSubscribeReceivesEvents(t *testing.T) {
	hub, conn := newHubRig(t)

	require.NoError(t, conn.WriteJSON(map[string]any{"command": "subscribe", "id": 1}))
	frame := readFrame(t, conn)
	assert.Equal(t, "success", frame["status"])
	assert.Equal(t, float64(1), frame["id"])

	hub.Publish(sale.Event{
		Type:   sale.EventSubmitted,
		Seller: rigSeller,
		Amount: amount.New(100_000),
		Fee:    amount.New(5_000),
		Tick:   11,
	})

	frame = readFrame(t, conn)
	assert.Equal(t, "saleEvent", frame["type"])
	event := frame["event"].(map[string]any)
	assert.Equal(t, "submitted", event["type"])
	assert.Equal(t, "100000", event["amount"])
}

func TestHubUnsubscribedGetsNothing(t *testing.T) {
	hub, conn := newHubRig(t)

	// Never subscribed: publishing must not deliver.
	hub.Publish(sale.Event{Type: sale.EventSettled})

	require.NoError(t, conn.WriteJSON(map[string]any{"command": "server_info", "id": 2}))
	frame := readFrame(t, conn)
	assert.Equal(t, "response", frame["type"])
	assert.Equal(t, float64(2), frame["id"])
}

func TestHubMethodCall(t *testing.T) {
	_, conn := newHubRig(t)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"command": "sale_params",
		"id":      "abc",
	}))
	frame := readFrame(t, conn)
	require.Equal(t, "success", frame["status"])
	result := frame["result"].(map[string]any)
	assert.Equal(t, float64(100), result["price"])
}

func TestHubUnknownCommand(t *testing.T) {
	_, conn := newHubRig(t)

	require.NoError(t, conn.WriteJSON(map[string]any{"command": "bogus"}))
	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame["status"])
	assert.Equal(t, "unknownCmd", frame["error"])
}
