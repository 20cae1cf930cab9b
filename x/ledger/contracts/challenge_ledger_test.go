package contracts

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const testContract = "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"

func newTestBinding(t *testing.T) *ChallengeLedgerBinding {
	t.Helper()
	b, err := NewChallengeLedgerBinding(testContract)
	require.NoError(t, err)
	return b
}

func TestNewChallengeLedgerBinding_Validation(t *testing.T) {
	_, err := NewChallengeLedgerBinding("  ")
	require.Error(t, err)

	_, err = NewChallengeLedgerBinding("0x1234")
	require.Error(t, err)

	b := newTestBinding(t)
	require.Equal(t, common.HexToAddress(testContract), b.Address())
	for _, m := range []string{
		MethodChallengeCount, MethodChallenges, MethodCreateChallenge, MethodSubmitSolution, MethodClaimBounty,
	} {
		require.Contains(t, b.ABI().Methods, m)
	}
}

func TestBuildSubmitSolutionCalldata(t *testing.T) {
	b := newTestBinding(t)
	hash := common.HexToHash("0x" + strings.Repeat("de", 16) + strings.Repeat("be", 16))
	seal := []byte{0x31, 0x0f, 0xe5, 0x98, 0x01, 0x02}

	calldata, err := b.BuildSubmitSolutionCalldata(big.NewInt(7), hash, seal)
	require.NoError(t, err)

	method := b.ABI().Methods[MethodSubmitSolution]
	require.Equal(t, method.ID, calldata[:4])

	unpacked, err := method.Inputs.Unpack(calldata[4:])
	require.NoError(t, err)
	require.Len(t, unpacked, 3)
	require.Equal(t, 0, unpacked[0].(*big.Int).Cmp(big.NewInt(7)))
	require.Equal(t, [32]byte(hash), unpacked[1].([32]byte))
	require.Equal(t, seal, unpacked[2].([]byte))

	_, err = b.BuildSubmitSolutionCalldata(big.NewInt(7), hash, nil)
	require.Error(t, err)
}

func TestBuildCreateChallengeCalldata_OmitsBounty(t *testing.T) {
	b := newTestBinding(t)

	calldata, err := b.BuildCreateChallengeCalldata("And commutes", "a ∧ b → b ∧ a", big.NewInt(1_700_000_000))
	require.NoError(t, err)

	unpacked, err := b.ABI().Methods[MethodCreateChallenge].Inputs.Unpack(calldata[4:])
	require.NoError(t, err)
	require.Len(t, unpacked, 3)
	require.Equal(t, "And commutes", unpacked[0])
	require.Equal(t, "a ∧ b → b ∧ a", unpacked[1])
	require.Equal(t, int64(1_700_000_000), unpacked[2].(*big.Int).Int64())
}

func TestBuildClaimBountyCalldata(t *testing.T) {
	b := newTestBinding(t)

	calldata, err := b.BuildClaimBountyCalldata(big.NewInt(7), "and.comm")
	require.NoError(t, err)

	unpacked, err := b.ABI().Methods[MethodClaimBounty].Inputs.Unpack(calldata[4:])
	require.NoError(t, err)
	require.Equal(t, "and.comm", unpacked[1])
}

func TestDecodeChallenge(t *testing.T) {
	b := newTestBinding(t)
	creator := common.HexToAddress("0x0123456789abcdef0123456789abcdef01234567")

	out, err := b.ABI().Methods[MethodChallenges].Outputs.Pack(
		creator,
		big.NewInt(3),
		"a ∧ b → b ∧ a",
		"And commutes",
		big.NewInt(1_000_000_000_000_000_000),
		big.NewInt(1_700_000_000),
	)
	require.NoError(t, err)

	rec, err := b.DecodeChallenge(out)
	require.NoError(t, err)
	require.Equal(t, creator, rec.Creator)
	require.Equal(t, int64(3), rec.ID.Int64())
	require.Equal(t, "a ∧ b → b ∧ a", rec.Theorem)
	require.Equal(t, "And commutes", rec.Name)
	require.Equal(t, "1000000000000000000", rec.Bounty.String())
	require.Equal(t, int64(1_700_000_000), rec.Expiration.Int64())
}

func TestDecodeChallenge_Malformed(t *testing.T) {
	b := newTestBinding(t)

	_, err := b.DecodeChallenge([]byte{0x01, 0x02})
	require.ErrorIs(t, err, ErrUnexpectedOutput)

	_, err = b.DecodeChallengeCount(nil)
	require.ErrorIs(t, err, ErrUnexpectedOutput)
}

func TestDecodeChallengeCount(t *testing.T) {
	b := newTestBinding(t)

	out, err := b.ABI().Methods[MethodChallengeCount].Outputs.Pack(big.NewInt(12))
	require.NoError(t, err)

	count, err := b.DecodeChallengeCount(out)
	require.NoError(t, err)
	require.Equal(t, int64(12), count.Int64())
}
