// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package message

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/xbridge"
	"github.com/luxfi/xbridge/bridge"
	"github.com/luxfi/xbridge/codec"
	"github.com/luxfi/xbridge/roles"
	"github.com/luxfi/xbridge/signers"
	"github.com/luxfi/xbridge/state"
	"github.com/luxfi/xbridge/token"
)

const (
	localChainID  = 56
	remoteChainID = 1
)

var (
	owner     = common.HexToAddress("0x0a")
	mallory   = common.HexToAddress("0x0c")
	srcApp    = common.HexToAddress("0x5a")
	dstApp    = common.HexToAddress("0xda")
	usdt      = common.HexToAddress("0x7777")
	lqAddr    = common.HexToAddress("0xb1")
	busAddr   = common.HexToAddress("0xb2")
	srcTxHash = common.HexToHash("0x1234")
)

type mockReceiver struct {
	status         ExecutionStatus
	err            error
	fallbackStatus ExecutionStatus
	fallbackErr    error
	calls          []string
}

func (m *mockReceiver) ExecuteMessage(context.Context, common.Address, uint64, []byte) (ExecutionStatus, error) {
	m.calls = append(m.calls, "message")
	return m.status, m.err
}

func (m *mockReceiver) ExecuteMessageWithTransfer(context.Context, common.Address, common.Address, *uint256.Int, uint64, []byte) (ExecutionStatus, error) {
	m.calls = append(m.calls, "transfer")
	return m.status, m.err
}

func (m *mockReceiver) ExecuteMessageWithTransferFallback(context.Context, common.Address, common.Address, *uint256.Int, uint64, []byte) (ExecutionStatus, error) {
	m.calls = append(m.calls, "fallback")
	return m.fallbackStatus, m.fallbackErr
}

func (m *mockReceiver) ExecuteMessageWithTransferRefund(context.Context, common.Address, *uint256.Int, []byte) (ExecutionStatus, error) {
	m.calls = append(m.calls, "refund")
	return m.status, m.err
}

type busEnv struct {
	log    *xbridge.EventLog
	bridge *bridge.Bridge
	bus    *Bus
	keys   []*signers.LocalSigner
	live   *signers.Set
	app    *mockReceiver
}

func newBusEnv(t *testing.T) *busEnv {
	t.Helper()
	require := require.New(t)

	env := &busEnv{
		log: xbridge.NewEventLog(),
		app: &mockReceiver{status: ExecutionSuccess},
	}
	clock := xbridge.NewManualClock(time.Unix(1_700_000_000, 0))
	ledger := token.NewLedger(nil)
	bridgeStore := state.NewMemoryStore("bridge", env.log)

	var err error
	env.bridge, err = bridge.New(bridge.Config{
		Kind:    bridge.Liquidity,
		Domain:  codec.Domain{ChainID: localChainID, Contract: lqAddr},
		Codec:   codec.ProtoCodec{},
		Store:   bridgeStore,
		Backend: ledger,
		Now:     clock.Now,
	})
	require.NoError(err)

	var (
		addrs []common.Address
		pows  []*uint256.Int
	)
	for i := 0; i < 3; i++ {
		s, err := signers.GenerateLocalSigner()
		require.NoError(err)
		env.keys = append(env.keys, s)
	}
	signers.SortByAddress(env.keys)
	for _, k := range env.keys {
		addrs = append(addrs, k.Address())
		pows = append(pows, uint256.NewInt(1))
	}
	env.live, err = signers.NewSet(addrs, pows)
	require.NoError(err)
	require.NoError(env.bridge.Init(bridge.Genesis{Owner: owner, Signers: addrs, Powers: pows}))
	require.NoError(bridgeStore.Update(func(kv state.KV) error {
		return ledger.Mint(kv, usdt, lqAddr, uint256.NewInt(1_000))
	}))

	env.bus, err = New(Config{
		Domain:    codec.Domain{ChainID: localChainID, Contract: busAddr},
		Store:     state.NewMemoryStore("message", env.log),
		Verifier:  env.bridge,
		Liquidity: env.bridge,
	})
	require.NoError(err)
	require.NoError(env.bus.Init(owner, uint256.NewInt(10), uint256.NewInt(2)))
	env.bus.Register(dstApp, env.app)
	env.log.Reset()
	return env
}

func (env *busEnv) bundle(t *testing.T, digest common.Hash, n int) signers.Bundle {
	t.Helper()
	b, err := signers.NewBundle(digest, env.live, env.keys[:n]...)
	require.NoError(t, err)
	return b
}

func (env *busEnv) messageBundle(t *testing.T, message []byte, route Route, n int) signers.Bundle {
	id := codec.MessageID(route.Sender, route.Receiver, route.SrcChainID, route.SrcTxHash, localChainID, message)
	return env.bundle(t, codec.SignedDigest(env.bus.cfg.Domain.Separator(DomainMessage), id[:]), n)
}

func (env *busEnv) transferBundle(t *testing.T, domain string, message []byte, xfer TransferInfo) signers.Bundle {
	xferID, srcBridge, err := env.bus.TransferID(xfer)
	require.NoError(t, err)
	id := codec.MessageWithTransferID(srcBridge, xferID)
	return env.bundle(t, codec.SignedDigest(env.bus.cfg.Domain.Separator(domain), id[:], message, xfer.SrcTxHash[:]), len(env.keys))
}

// relay completes a bridge transfer to dstApp and returns its description.
func (env *busEnv) relay(t *testing.T) TransferInfo {
	t.Helper()
	req := &codec.RelayRequest{
		Sender:        srcApp,
		Receiver:      dstApp,
		Token:         usdt,
		Amount:        uint256.NewInt(100),
		SrcChainID:    remoteChainID,
		DstChainID:    localChainID,
		SrcTransferID: common.Hash{0x01},
	}
	payload, err := env.bridge.Codec().Encode(req)
	require.NoError(t, err)
	digest := codec.SignedDigest(env.bridge.Domain().Separator(codec.TypeRelay.DomainName()), payload)
	_, err = env.bridge.Relay(payload, env.bundle(t, digest, len(env.keys)))
	require.NoError(t, err)
	env.log.Reset()
	return env.transferInfo()
}

func (env *busEnv) transferInfo() TransferInfo {
	return TransferInfo{
		Type:       TransferLqRelay,
		Sender:     srcApp,
		Receiver:   dstApp,
		Token:      usdt,
		Amount:     uint256.NewInt(100),
		SrcChainID: remoteChainID,
		RefID:      common.Hash{0x01},
		SrcTxHash:  srcTxHash,
	}
}

func messageID(message []byte, route Route) ids.ID {
	return codec.MessageID(route.Sender, route.Receiver, route.SrcChainID, route.SrcTxHash, localChainID, message)
}

func TestSendMessage(t *testing.T) {
	require := require.New(t)

	env := newBusEnv(t)
	message := []byte("hello")

	fee, err := env.bus.CalcFee(context.Background(), message)
	require.NoError(err)
	require.Equal(uint256.NewInt(20), fee)

	err = env.bus.SendMessage(context.Background(), srcApp, dstApp, remoteChainID, message, uint256.NewInt(19))
	require.ErrorIs(err, ErrInsufficientFee)
	err = env.bus.SendMessage(context.Background(), srcApp, dstApp, localChainID, message, uint256.NewInt(20))
	require.ErrorIs(err, ErrInvalidChainID)

	require.NoError(env.bus.SendMessage(context.Background(), srcApp, dstApp, remoteChainID, message, uint256.NewInt(20)))
	require.Equal(Sent{
		Sender:     srcApp,
		Receiver:   dstApp,
		DstChainID: remoteChainID,
		Message:    message,
		Fee:        uint256.NewInt(20),
	}, env.log.Last())

	require.NoError(env.bus.SendMessageWithTransfer(context.Background(), srcApp, dstApp, remoteChainID, lqAddr, ids.ID{0x01}, message, uint256.NewInt(25)))
	require.Equal(EventMessageWithTransfer, env.log.Last().EventName())
}

func TestSetFees(t *testing.T) {
	require := require.New(t)

	env := newBusEnv(t)
	require.ErrorIs(env.bus.SetFeeBase(mallory, uint256.NewInt(0)), roles.ErrNotOwner)
	require.ErrorIs(env.bus.SetFeePerByte(mallory, uint256.NewInt(0)), roles.ErrNotOwner)

	require.NoError(env.bus.SetFeeBase(owner, uint256.NewInt(1)))
	require.NoError(env.bus.SetFeePerByte(owner, uint256.NewInt(0)))
	require.Equal(FeePerByteUpdated{FeePerByte: uint256.NewInt(0)}, env.log.Last())

	fee, err := env.bus.CalcFee(context.Background(), make([]byte, 100))
	require.NoError(err)
	require.Equal(uint256.NewInt(1), fee)
}

func TestExecuteMessage(t *testing.T) {
	message := []byte("ping")
	route := Route{Sender: srcApp, Receiver: dstApp, SrcChainID: remoteChainID, SrcTxHash: srcTxHash}

	tests := []struct {
		name     string
		route    Route
		app      mockReceiver
		signers  int
		expected error
		status   TxStatus
		events   []string
	}{
		{
			name:    "success",
			route:   route,
			app:     mockReceiver{status: ExecutionSuccess},
			signers: 3,
			status:  StatusSuccess,
			events:  []string{EventExecuted},
		},
		{
			name:    "receiver fails",
			route:   route,
			app:     mockReceiver{err: errors.New("boom")},
			signers: 3,
			status:  StatusFail,
			events:  []string{EventCallReverted, EventExecuted},
		},
		{
			name:    "receiver reports failure",
			route:   route,
			app:     mockReceiver{status: ExecutionFail},
			signers: 3,
			status:  StatusFail,
			events:  []string{EventExecuted},
		},
		{
			name:    "unknown receiver",
			route:   Route{Sender: srcApp, Receiver: mallory, SrcChainID: remoteChainID, SrcTxHash: srcTxHash},
			app:     mockReceiver{status: ExecutionSuccess},
			signers: 3,
			status:  StatusFail,
			events:  []string{EventCallReverted, EventExecuted},
		},
		{
			name:    "retry",
			route:   route,
			app:     mockReceiver{status: ExecutionRetry},
			signers: 3,
			status:  StatusNull,
			events:  []string{EventNeedRetry},
		},
		{
			name:     "abort",
			route:    route,
			app:      mockReceiver{err: errors.New(AbortPrefix + "bad state")},
			signers:  3,
			expected: ErrExecutionAborted,
			status:   StatusNull,
		},
		{
			name:     "no quorum",
			route:    route,
			app:      mockReceiver{status: ExecutionSuccess},
			signers:  2,
			expected: signers.ErrQuorumNotReached,
			status:   StatusNull,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			env := newBusEnv(t)
			*env.app = tt.app
			bundle := env.messageBundle(t, message, tt.route, tt.signers)

			err := env.bus.ExecuteMessage(context.Background(), message, tt.route, bundle)
			require.ErrorIs(err, tt.expected)

			status, err := env.bus.Status(context.Background(), messageID(message, tt.route))
			require.NoError(err)
			require.Equal(tt.status, status)

			var names []string
			for _, e := range env.log.Events() {
				names = append(names, e.EventName())
			}
			require.Equal(tt.events, names)
		})
	}
}

func TestExecuteMessageReplay(t *testing.T) {
	require := require.New(t)

	env := newBusEnv(t)
	message := []byte("ping")
	route := Route{Sender: srcApp, Receiver: dstApp, SrcChainID: remoteChainID, SrcTxHash: srcTxHash}
	bundle := env.messageBundle(t, message, route, 3)

	env.app.status = ExecutionRetry
	require.NoError(env.bus.ExecuteMessage(context.Background(), message, route, bundle))

	env.app.status = ExecutionSuccess
	require.NoError(env.bus.ExecuteMessage(context.Background(), message, route, bundle))
	err := env.bus.ExecuteMessage(context.Background(), message, route, bundle)
	require.ErrorIs(err, ErrMessageExecuted)
	require.Equal([]string{"message", "message"}, env.app.calls)
}

// replyReceiver answers every message by sending one back through the bus
// from inside its own execution.
type replyReceiver struct {
	mockReceiver
	bus *Bus
}

func (r *replyReceiver) ExecuteMessage(ctx context.Context, sender common.Address, srcChainID uint64, message []byte) (ExecutionStatus, error) {
	r.calls = append(r.calls, "message")
	if _, err := r.bus.Status(ctx, ids.ID{}); err != nil {
		return ExecutionFail, err
	}
	fee, err := r.bus.CalcFee(ctx, []byte("pong"))
	if err != nil {
		return ExecutionFail, err
	}
	if err := r.bus.SendMessage(ctx, dstApp, sender, srcChainID, []byte("pong"), fee); err != nil {
		return ExecutionFail, err
	}
	return r.status, r.err
}

func TestExecuteMessageReply(t *testing.T) {
	message := []byte("ping")
	route := Route{Sender: srcApp, Receiver: dstApp, SrcChainID: remoteChainID, SrcTxHash: srcTxHash}

	tests := []struct {
		name   string
		app    mockReceiver
		status TxStatus
		events []string
	}{
		{
			name:   "reply committed",
			app:    mockReceiver{status: ExecutionSuccess},
			status: StatusSuccess,
			events: []string{EventMessage, EventExecuted},
		},
		{
			name:   "reply rolled back with failed receiver",
			app:    mockReceiver{err: errors.New("boom")},
			status: StatusFail,
			events: []string{EventCallReverted, EventExecuted},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			env := newBusEnv(t)
			app := &replyReceiver{mockReceiver: tt.app, bus: env.bus}
			env.bus.Register(dstApp, app)
			bundle := env.messageBundle(t, message, route, 3)

			done := make(chan error, 1)
			go func() {
				done <- env.bus.ExecuteMessage(context.Background(), message, route, bundle)
			}()
			select {
			case err := <-done:
				require.NoError(err)
			case <-time.After(5 * time.Second):
				require.FailNow("execution did not return")
			}

			status, err := env.bus.Status(context.Background(), messageID(message, route))
			require.NoError(err)
			require.Equal(tt.status, status)
			require.Equal([]string{"message"}, app.calls)

			var names []string
			for _, e := range env.log.Events() {
				names = append(names, e.EventName())
			}
			require.Equal(tt.events, names)
		})
	}
}

func TestExecuteMessageWithTransfer(t *testing.T) {
	require := require.New(t)

	env := newBusEnv(t)
	message := []byte("swap")
	xfer := env.transferInfo()
	bundle := env.transferBundle(t, DomainMessageWithTransfer, message, xfer)

	err := env.bus.ExecuteMessageWithTransfer(context.Background(), message, xfer, bundle)
	require.ErrorIs(err, ErrBridgeRelayNotExist)

	env.relay(t)
	env.app.err = errors.New("slippage")
	env.app.fallbackStatus = ExecutionSuccess
	require.NoError(env.bus.ExecuteMessageWithTransfer(context.Background(), message, xfer, bundle))
	require.Equal([]string{"transfer", "fallback"}, env.app.calls)

	executed := env.log.Named(EventExecuted)
	require.Len(executed, 1)
	require.Equal(StatusFallback, executed[0].(Executed).Status)
	require.Equal(CallReverted{Reason: "slippage"}, env.log.Named(EventCallReverted)[0])

	err = env.bus.ExecuteMessageWithTransfer(context.Background(), message, xfer, bundle)
	require.ErrorIs(err, ErrTransferExecuted)

	// No withdrawal with these fields was recorded.
	other := xfer
	other.Type = TransferLqWithdraw
	err = env.bus.ExecuteMessageWithTransfer(context.Background(), message, other, bundle)
	require.ErrorIs(err, ErrBridgeWithdrawNotExist)
}

func TestExecuteMessageWithTransferRefund(t *testing.T) {
	require := require.New(t)

	env := newBusEnv(t)
	message := []byte("refund")

	req := &codec.WithdrawRequest{
		ChainID:  localChainID,
		SeqNum:   9,
		Receiver: dstApp,
		Token:    usdt,
		Amount:   uint256.NewInt(40),
	}
	payload, err := env.bridge.Codec().Encode(req)
	require.NoError(err)
	digest := codec.SignedDigest(env.bridge.Domain().Separator(codec.TypeWithdraw.DomainName()), payload)
	_, err = env.bridge.Withdraw(payload, env.bundle(t, digest, 3))
	require.NoError(err)

	xfer := TransferInfo{
		Type:      TransferLqWithdraw,
		Receiver:  dstApp,
		Token:     usdt,
		Amount:    uint256.NewInt(40),
		WdSeq:     9,
		SrcTxHash: srcTxHash,
	}
	forward := env.transferBundle(t, DomainMessageWithTransfer, message, xfer)
	err = env.bus.ExecuteMessageWithTransferRefund(context.Background(), message, xfer, forward)
	require.Error(err)
	require.Equal(xbridge.KindAuthentication, xbridge.KindOf(err))

	refund := env.transferBundle(t, DomainMessageWithTransferRefund, message, xfer)
	require.NoError(env.bus.ExecuteMessageWithTransferRefund(context.Background(), message, xfer, refund))
	require.Equal([]string{"refund"}, env.app.calls)
	require.Equal(StatusSuccess, env.log.Last().(Executed).Status)
}

func TestTransferIDInvalid(t *testing.T) {
	env := newBusEnv(t)
	_, _, err := env.bus.TransferID(TransferInfo{Type: TransferPegMint})
	require.ErrorIs(t, err, ErrInvalidTransferType)
	_, _, err = env.bus.TransferID(TransferInfo{Type: 9})
	require.ErrorIs(t, err, ErrInvalidTransferType)
}
