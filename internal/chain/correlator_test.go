package chain

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"
)

type fakeNode struct {
	statuses   []SubmitStatus
	extrinsics []string
}

func (f *fakeNode) AccountNonce(ctx context.Context, ss58 string) (uint32, error) { return 0, nil }
func (f *fakeNode) GenesisHash(ctx context.Context) ([32]byte, error)             { return [32]byte{}, nil }
func (f *fakeNode) RuntimeVersion(ctx context.Context) (uint32, uint32, error)    { return 0, 0, nil }
func (f *fakeNode) Close() error                                                 { return nil }

func (f *fakeNode) GetBlockExtrinsics(ctx context.Context, blockHash string) ([]string, error) {
	return f.extrinsics, nil
}

func (f *fakeNode) SubmitAndWatch(ctx context.Context, extrinsicHex string) (<-chan SubmitStatus, error) {
	ch := make(chan SubmitStatus, len(f.statuses))
	for _, s := range f.statuses {
		ch <- s
	}
	close(ch)
	return ch, nil
}

type fakeFrameSource struct {
	frames [][]byte
	i      int
}

func (f *fakeFrameSource) Read(ctx context.Context) ([]byte, error) {
	if f.i >= len(f.frames) {
		return nil, errors.New("no more frames")
	}
	frame := f.frames[f.i]
	f.i++
	return frame, nil
}

func (f *fakeFrameSource) Close() error { return nil }

func stateStorageFrame(t *testing.T, blockHash string, eventsRaw []byte) []byte {
	t.Helper()
	payload := `{"jsonrpc":"2.0","method":"state_storage","params":{"subscription":"1","result":{"block":"` + blockHash + `","changes":[["` + systemEventsStorageKey + `","0x` + hex.EncodeToString(eventsRaw) + `"]]}}}`
	return []byte(payload)
}

func TestCorrelator_Submit_Success(t *testing.T) {
	const blockHash = "0xblock1"
	rec := Concat(encodeApplyExtrinsicPhase(0), []byte{10, 3}, []byte{})
	eventsRaw := Concat(CompactUint(1), rec)

	node := &fakeNode{
		statuses:   []SubmitStatus{{InBlock: blockHash}},
		extrinsics: []string{"0xdeadbeef"},
	}
	corr := &Correlator{
		events: &fakeFrameSource{frames: [][]byte{stateStorageFrame(t, blockHash, eventsRaw)}},
		node:   node,
	}

	if err := corr.Submit(context.Background(), "0xdeadbeef"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestCorrelator_Submit_PalletFailure(t *testing.T) {
	const blockHash = "0xblock2"
	failureBody := []byte{3, 10, 2} // DispatchError::Module{index:10, error:2}
	rec := Concat(encodeApplyExtrinsicPhase(0), []byte{systemPalletIndex, extrinsicFailedVariant}, failureBody)
	eventsRaw := Concat(CompactUint(1), rec)

	node := &fakeNode{
		statuses:   []SubmitStatus{{InBlock: blockHash}},
		extrinsics: []string{"0xcafebabe"},
	}
	corr := &Correlator{
		events: &fakeFrameSource{frames: [][]byte{stateStorageFrame(t, blockHash, eventsRaw)}},
		node:   node,
	}

	err := corr.Submit(context.Background(), "0xcafebabe")
	if err == nil {
		t.Fatal("expected a pallet error")
	}
	want := PalletErrorForModule(ModuleError{PalletIndex: 10, ErrorIndex: 2})
	if !errors.Is(err, want) {
		t.Errorf("got %v, want %v", err, want)
	}
}

func TestCorrelator_Submit_ExtrinsicNotInBlock(t *testing.T) {
	node := &fakeNode{
		statuses:   []SubmitStatus{{InBlock: "0xblock3"}},
		extrinsics: []string{"0xsomethingelse"},
	}
	corr := &Correlator{
		events: &fakeFrameSource{},
		node:   node,
	}

	if err := corr.Submit(context.Background(), "0xmissing"); !errors.Is(err, ErrCouldNotSubmitEvent) {
		t.Errorf("got %v, want ErrCouldNotSubmitEvent", err)
	}
}

func TestCorrelator_Submit_RPCError(t *testing.T) {
	node := &fakeNode{
		statuses: []SubmitStatus{{Err: ErrCouldNotCallExtrinsic}},
	}
	corr := &Correlator{events: &fakeFrameSource{}, node: node}

	if err := corr.Submit(context.Background(), "0xwhatever"); !errors.Is(err, ErrCouldNotCallExtrinsic) {
		t.Errorf("got %v, want ErrCouldNotCallExtrinsic", err)
	}
}

func TestCorrelator_IgnoresEventsFromOtherExtrinsics(t *testing.T) {
	const blockHash = "0xblock4"
	// Event phased against extrinsic index 1, but our extrinsic is at index 0.
	otherRec := Concat(encodeApplyExtrinsicPhase(1), []byte{systemPalletIndex, extrinsicFailedVariant}, []byte{3, 10, 2})
	ownRec := Concat(encodeApplyExtrinsicPhase(0), []byte{10, 3}, []byte{})
	eventsRaw := Concat(CompactUint(2), otherRec, ownRec)

	node := &fakeNode{
		statuses:   []SubmitStatus{{InBlock: blockHash}},
		extrinsics: []string{"0xmine", "0xtheirs"},
	}
	corr := &Correlator{
		events: &fakeFrameSource{frames: [][]byte{stateStorageFrame(t, blockHash, eventsRaw)}},
		node:   node,
	}

	if err := corr.Submit(context.Background(), "0xmine"); err != nil {
		t.Errorf("expected success for index-0 extrinsic, got %v", err)
	}
}
