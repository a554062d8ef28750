package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"nhooyr.io/websocket"
)

// CorrelatorState names the state machine spec §4.8 describes.
type CorrelatorState int

const (
	StateIdle CorrelatorState = iota
	StateSubscribed
	StateSubmitted
	StateInBlock
	StateFinalized
	StateTerminal
)

// eventFrameSource reads successive raw text frames from the events
// subscription. websocketFrameSource implements it over a real
// connection; tests substitute a fake to drive the correlator's state
// machine without a live node.
type eventFrameSource interface {
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

type websocketFrameSource struct {
	conn *websocket.Conn
}

func (w websocketFrameSource) Read(ctx context.Context) ([]byte, error) {
	_, data, err := w.conn.Read(ctx)
	return data, err
}

func (w websocketFrameSource) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "done")
}

// Correlator drives one submitted extrinsic through spec §4.8's state
// machine: open an events subscription, submit, wait for block
// inclusion, locate the extrinsic's position in that block, then
// decode the matching event to a terminal success or a mapped
// NodeError failure.
type Correlator struct {
	events eventFrameSource
	node   Node
}

// NewCorrelator opens the events subscription ahead of submission, as
// spec §4.8 step 1 requires, over its own connection.
func NewCorrelator(ctx context.Context, eventsURL string, node Node) (*Correlator, error) {
	conn, _, err := websocket.Dial(ctx, eventsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouldNotConnectToNode, err)
	}
	conn.SetReadLimit(16 * 1024 * 1024)

	req := rpcRequest{ID: 1, Jsonrpc: "2.0", Method: "state_subscribeStorage", Params: []string{systemEventsStorageKey}}
	body, err := json.Marshal(req)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "marshal failed")
		return nil, fmt.Errorf("%w: %v", ErrCouldNotSendMessageToNode, err)
	}
	if err := conn.Write(ctx, websocket.MessageText, body); err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		return nil, fmt.Errorf("%w: %v", ErrCouldNotSendMessageToNode, err)
	}
	// First frame is the subscription id acknowledgement; absorb it.
	if _, _, err := conn.Read(ctx); err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe ack failed")
		return nil, fmt.Errorf("%w: %v", ErrCouldNotReadMessageFromNode, err)
	}

	return &Correlator{events: websocketFrameSource{conn: conn}, node: node}, nil
}

// Close tears down the events subscription connection.
func (c *Correlator) Close() error {
	return c.events.Close()
}

// Submit drives the full correlation procedure for one extrinsic (spec
// §4.8): submit, wait for InBlock/Finalized, locate its index in the
// block, then scan events frames for the matching phase and decode the
// outcome. Returns nil on a decoded success event, or the mapped
// NodeError on a decoded DispatchError::Module failure.
func (c *Correlator) Submit(ctx context.Context, extrinsicHex string) error {
	statuses, err := c.node.SubmitAndWatch(ctx, extrinsicHex)
	if err != nil {
		return err
	}

	var blockHash string
	for status := range statuses {
		if status.Err != nil {
			return status.Err
		}
		if status.InBlock != "" {
			blockHash = status.InBlock
			break
		}
	}
	if blockHash == "" {
		return fmt.Errorf("%w: subscription closed before InBlock", ErrCouldNotSubmitEvent)
	}

	extrinsics, err := c.node.GetBlockExtrinsics(ctx, blockHash)
	if err != nil {
		return err
	}
	extrinsicIndex := -1
	for i, ex := range extrinsics {
		if strings.EqualFold(ex, extrinsicHex) {
			extrinsicIndex = i
			break
		}
	}
	if extrinsicIndex < 0 {
		return fmt.Errorf("%w: extrinsic not found in block %s", ErrCouldNotSubmitEvent, blockHash)
	}

	return c.awaitEventsFor(ctx, blockHash, uint32(extrinsicIndex))
}

func (c *Correlator) awaitEventsFor(ctx context.Context, blockHash string, extrinsicIndex uint32) error {
	for {
		data, err := c.events.Read(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCouldNotSubmitEvent, err)
		}

		var env rpcEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		if env.Method != "state_storage" || len(env.Params) == 0 {
			continue
		}
		var frame struct {
			Result struct {
				Block   string      `json:"block"`
				Changes [][2]string `json:"changes"`
			} `json:"result"`
		}
		if err := json.Unmarshal(env.Params, &frame); err != nil {
			continue
		}
		if !strings.EqualFold(frame.Result.Block, blockHash) {
			continue
		}

		for _, change := range frame.Result.Changes {
			if len(change) != 2 {
				continue
			}
			raw, err := hex.DecodeString(strings.TrimPrefix(change[1], "0x"))
			if err != nil {
				continue
			}
			records, err := DecodeEventRecords(raw)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrCouldNotSubmitEvent, err)
			}
			if outcome, done := resolveOutcome(records, extrinsicIndex); done {
				return outcome
			}
		}
	}
}

// resolveOutcome scans one frame's event records for the first whose
// phase matches extrinsicIndex, per spec §4.8's strict ordering rule
// that events from other extrinsics in the same block are ignored.
func resolveOutcome(records []EventRecord, extrinsicIndex uint32) (error, bool) {
	for _, rec := range records {
		if rec.Phase.Kind != PhaseApplyExtrinsic || rec.Phase.ExtrinsicIndex != extrinsicIndex {
			continue
		}
		if rec.PalletIndex == systemPalletIndex && rec.VariantIndex == extrinsicFailedVariant {
			modErr, err := DecodeDispatchError(rec.Body)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrCouldNotSubmitEvent, err), true
			}
			return PalletErrorForModule(modErr), true
		}
		return nil, true
	}
	return nil, false
}
