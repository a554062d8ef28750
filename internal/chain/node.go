package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"nhooyr.io/websocket"
)

// Node is the collaborator the extrinsic and event-correlation layers
// talk to: a single JSON-RPC / subscription endpoint exposing the
// handful of Substrate-style chain methods this client needs (spec
// §4.7, §4.8). Client is the nhooyr.io/websocket-backed implementation;
// the correlator is written against this interface so it can be driven
// against a fake in tests.
type Node interface {
	AccountNonce(ctx context.Context, ss58 string) (uint32, error)
	GenesisHash(ctx context.Context) ([32]byte, error)
	RuntimeVersion(ctx context.Context) (specVersion, txVersion uint32, err error)
	SubmitAndWatch(ctx context.Context, extrinsicHex string) (<-chan SubmitStatus, error)
	GetBlockExtrinsics(ctx context.Context, blockHash string) ([]string, error)
	Close() error
}

// SubmitStatus is one status frame from author_submitAndWatchExtrinsic
// (spec §4.8 step 2).
type SubmitStatus struct {
	InBlock string // non-empty on InBlock/Finalized transitions
	Err     error  // non-nil on a terminal RPC-reported failure
}

type rpcRequest struct {
	ID      int      `json:"id"`
	Jsonrpc string   `json:"jsonrpc"`
	Method  string   `json:"method"`
	Params  []string `json:"params"`
}

type rpcEnvelope struct {
	ID     *int            `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Params json.RawMessage `json:"params"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// Client is a Node backed by a single long-lived WebSocket connection.
type Client struct {
	conn   *websocket.Conn
	nextID int
}

// Dial opens a JSON-RPC connection to a chain node's WebSocket
// endpoint. The connection is short-lived for metadata queries (spec
// §4.7 step 1 closes it after) and long-lived for the event correlator
// (spec §4.8), so callers own the Close.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouldNotConnectToNode, err)
	}
	conn.SetReadLimit(16 * 1024 * 1024)
	return &Client{conn: conn}, nil
}

// Close terminates the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "done")
}

func (c *Client) call(ctx context.Context, method string, params []string) (json.RawMessage, error) {
	c.nextID++
	req := rpcRequest{ID: c.nextID, Jsonrpc: "2.0", Method: method, Params: params}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouldNotSendMessageToNode, err)
	}
	if err := c.conn.Write(ctx, websocket.MessageText, body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouldNotSendMessageToNode, err)
	}

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCouldNotReadMessageFromNode, err)
		}
		var env rpcEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCouldNotReadMessageFromNode, err)
		}
		if env.ID == nil || *env.ID != req.ID {
			// A subscription push that arrived interleaved with our
			// request/response round trip; not what we asked for.
			continue
		}
		if env.Error != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrCouldNotReadMessageFromNode, env.Error.Message, env.Error.Data)
		}
		return env.Result, nil
	}
}

// AccountNonce queries system_accountNextIndex for an SS58-encoded account.
func (c *Client) AccountNonce(ctx context.Context, ss58 string) (uint32, error) {
	result, err := c.call(ctx, "system_accountNextIndex", []string{ss58})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCouldNotGetAccountNonce, err)
	}
	var nonce uint32
	if err := json.Unmarshal(result, &nonce); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCouldNotGetAccountNonce, err)
	}
	return nonce, nil
}

// GenesisHash queries chain_getBlockHash for block 0.
func (c *Client) GenesisHash(ctx context.Context) ([32]byte, error) {
	result, err := c.call(ctx, "chain_getBlockHash", []string{"0"})
	if err != nil {
		return [32]byte{}, fmt.Errorf("%w: %v", ErrCouldNotGetGenesisHash, err)
	}
	var hexHash string
	if err := json.Unmarshal(result, &hexHash); err != nil {
		return [32]byte{}, fmt.Errorf("%w: %v", ErrCouldNotGetGenesisHash, err)
	}
	return decodeHash32(hexHash, ErrCouldNotGetGenesisHash)
}

type runtimeVersionResult struct {
	SpecVersion        uint32 `json:"specVersion"`
	TransactionVersion uint32 `json:"transactionVersion"`
}

// RuntimeVersion queries state_getRuntimeVersion.
func (c *Client) RuntimeVersion(ctx context.Context) (uint32, uint32, error) {
	result, err := c.call(ctx, "state_getRuntimeVersion", nil)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrCouldNotGetRuntimeVersion, err)
	}
	var rv runtimeVersionResult
	if err := json.Unmarshal(result, &rv); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrCouldNotGetRuntimeVersion, err)
	}
	return rv.SpecVersion, rv.TransactionVersion, nil
}

// FetchMeta performs the three metadata queries spec §4.7 step 1 needs
// in one short-lived connection, then closes it.
func FetchMeta(ctx context.Context, nodeURL string, accountSS58 string) (NodeMeta, error) {
	client, err := Dial(ctx, nodeURL)
	if err != nil {
		return NodeMeta{}, err
	}
	defer client.Close()

	nonce, err := client.AccountNonce(ctx, accountSS58)
	if err != nil {
		return NodeMeta{}, err
	}
	genesis, err := client.GenesisHash(ctx)
	if err != nil {
		return NodeMeta{}, err
	}
	specVersion, txVersion, err := client.RuntimeVersion(ctx)
	if err != nil {
		return NodeMeta{}, err
	}

	return NodeMeta{
		Nonce:              nonce,
		GenesisHash:        genesis,
		SpecVersion:        specVersion,
		TransactionVersion: txVersion,
	}, nil
}

// GetBlockExtrinsics queries chain_getBlock and returns its extrinsics
// in order, used to locate the submitted extrinsic's index (spec §4.8
// step 3).
func (c *Client) GetBlockExtrinsics(ctx context.Context, blockHash string) ([]string, error) {
	result, err := c.call(ctx, "chain_getBlock", []string{blockHash})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouldNotSubmitEvent, err)
	}
	var block struct {
		Block struct {
			Extrinsics []string `json:"extrinsics"`
		} `json:"block"`
	}
	if err := json.Unmarshal(result, &block); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouldNotSubmitEvent, err)
	}
	return block.Block.Extrinsics, nil
}

// SubmitAndWatch sends author_submitAndWatchExtrinsic and streams
// status frames (spec §4.8 step 2). The subscription-id reply is
// skipped; "ready" and other non-terminal updates are forwarded as
// empty statuses. The stream ends after the first InBlock/Finalized or
// error frame, on a read error, or when ctx is cancelled.
func (c *Client) SubmitAndWatch(ctx context.Context, extrinsicHex string) (<-chan SubmitStatus, error) {
	c.nextID++
	req := rpcRequest{ID: c.nextID, Jsonrpc: "2.0", Method: "author_submitAndWatchExtrinsic", Params: []string{extrinsicHex}}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouldNotSendMessageToNode, err)
	}
	if err := c.conn.Write(ctx, websocket.MessageText, body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouldNotSendMessageToNode, err)
	}

	ch := make(chan SubmitStatus)
	go func() {
		defer close(ch)
		for {
			_, data, err := c.conn.Read(ctx)
			if err != nil {
				select {
				case ch <- SubmitStatus{Err: fmt.Errorf("%w: %v", ErrCouldNotReadMessageFromNode, err)}:
				case <-ctx.Done():
				}
				return
			}
			status, ok := parseSubmitFrame(data)
			if !ok {
				continue
			}
			select {
			case ch <- status:
				if status.InBlock != "" || status.Err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func parseSubmitFrame(data []byte) (SubmitStatus, bool) {
	var env rpcEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return SubmitStatus{}, false
	}
	if env.Error != nil {
		return SubmitStatus{Err: fmt.Errorf("%w: %s: %s", ErrCouldNotCallExtrinsic, env.Error.Message, env.Error.Data)}, true
	}
	if env.Method != "author_extrinsicUpdate" || len(env.Params) == 0 {
		return SubmitStatus{}, false
	}

	var frame struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(env.Params, &frame); err != nil {
		return SubmitStatus{}, false
	}

	var asString string
	if err := json.Unmarshal(frame.Result, &asString); err == nil {
		// "ready" or a bare subscription id string; neither advances state.
		return SubmitStatus{}, true
	}

	var asObject map[string]string
	if err := json.Unmarshal(frame.Result, &asObject); err != nil {
		return SubmitStatus{}, false
	}
	if hash, ok := asObject["inBlock"]; ok {
		return SubmitStatus{InBlock: hash}, true
	}
	if hash, ok := asObject["finalized"]; ok {
		return SubmitStatus{InBlock: hash}, true
	}
	return SubmitStatus{}, true
}

func decodeHash32(hexStr string, sentinel error) ([32]byte, error) {
	var out [32]byte
	trimmed := strings.TrimPrefix(hexStr, "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil || len(raw) != 32 {
		return out, fmt.Errorf("%w: malformed hash %q", sentinel, hexStr)
	}
	copy(out[:], raw)
	return out, nil
}

// defaultDialTimeout bounds how long a metadata round trip may take
// before the caller gives up on a stalled node connection.
const defaultDialTimeout = 30 * time.Second

// WithDialTimeout derives a context bounded by defaultDialTimeout,
// for callers that don't already carry a deadline.
func WithDialTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, defaultDialTimeout)
}
