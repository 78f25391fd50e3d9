package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingInvoker struct {
	contract util.Uint160
	method   string
	params   []any
	err      error
}

func (r *recordingInvoker) SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error) {
	r.contract = contract
	r.method = method
	r.params = params
	if r.err != nil {
		return util.Uint256{}, 0, r.err
	}
	return util.Uint256{0xab, 0xcd}, 4242, nil
}

func TestParseRecipientAcceptsAddressAndScriptHash(t *testing.T) {
	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	want := priv.GetScriptHash()

	got, err := ParseRecipient(priv.Address())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = ParseRecipient("0x" + want.StringLE())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ParseRecipient("0x1234")
	assert.ErrorIs(t, err, ErrInvalidRecipient)
	_, err = ParseRecipient("not-an-address")
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestParseSignerKeyHexAndWIF(t *testing.T) {
	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)

	fromHex, err := ParseSignerKey(hex.EncodeToString(priv.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, priv.Address(), fromHex.Address())

	fromWIF, err := ParseSignerKey(priv.WIF())
	require.NoError(t, err)
	assert.Equal(t, priv.Address(), fromWIF.Address())

	_, err = ParseSignerKey("garbage")
	assert.Error(t, err)
}

func TestMinterSendsMintCall(t *testing.T) {
	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	contract := util.Uint160{1, 2, 3}
	inv := &recordingInvoker{}
	m := NewMinterWithInvoker(inv, contract, zap.NewNop())

	metadata := json.RawMessage(`{"name":"Go Developer"}`)
	result, err := m.Mint(context.Background(), priv.Address(), metadata)
	require.NoError(t, err)

	assert.Equal(t, contract, inv.contract)
	assert.Equal(t, MintMethod, inv.method)
	require.Len(t, inv.params, 2)
	assert.Equal(t, priv.GetScriptHash(), inv.params[0])
	assert.Equal(t, `{"name":"Go Developer"}`, inv.params[1])

	assert.Equal(t, "0x"+(util.Uint256{0xab, 0xcd}).StringLE(), result.TransactionHash)
	assert.Equal(t, uint32(4242), result.ValidUntilBlock)
	assert.Equal(t, priv.Address(), result.RecipientAddress)
}

func TestMinterRejectsBadRecipientBeforeSending(t *testing.T) {
	inv := &recordingInvoker{}
	m := NewMinterWithInvoker(inv, util.Uint160{}, zap.NewNop())

	_, err := m.Mint(context.Background(), "bogus", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrInvalidRecipient)
	assert.Empty(t, inv.method)
}

func TestMinterWrapsSendFailure(t *testing.T) {
	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	sendErr := errors.New("insufficient GAS")
	m := NewMinterWithInvoker(&recordingInvoker{err: sendErr}, util.Uint160{}, zap.NewNop())

	_, err = m.Mint(context.Background(), priv.Address(), json.RawMessage(`{}`))
	assert.ErrorIs(t, err, sendErr)
}

func TestParseContractHash(t *testing.T) {
	want := util.Uint160{9, 8, 7}
	got, err := ParseContractHash("0x" + want.StringLE())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ParseContractHash("zz")
	assert.Error(t, err)
}
