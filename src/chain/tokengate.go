// Package chain reads token balances on the Lens chain for membership
// gating. Checks run before any join transaction so an underfunded wallet
// spends no gas.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/lensforum/lensforum/src/lens"
)

// balanceOf(address) selector, shared by ERC-20 and ERC-721.
var balanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31}

// BalanceReader reads a holder's balance of a token contract.
type BalanceReader interface {
	BalanceOf(ctx context.Context, token, holder string) (*big.Int, error)
}

// RPCReader implements BalanceReader over a JSON-RPC endpoint.
type RPCReader struct {
	client *ethclient.Client
}

func NewRPCReader(rpcURL string) (*RPCReader, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return &RPCReader{client: client}, nil
}

func (r *RPCReader) BalanceOf(ctx context.Context, token, holder string) (*big.Int, error) {
	if !common.IsHexAddress(token) {
		return nil, fmt.Errorf("invalid token address %q", token)
	}
	if !common.IsHexAddress(holder) {
		return nil, fmt.Errorf("invalid holder address %q", holder)
	}

	contract := common.HexToAddress(token)
	data := append(append([]byte{}, balanceOfSelector...), common.LeftPadBytes(common.HexToAddress(holder).Bytes(), 32)...)

	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("balanceOf: empty result from %s", token)
	}
	return new(big.Int).SetBytes(out), nil
}

// VerificationError reports an unmet token or payment gate. It is not a
// failure of the pipeline; the caller renders required vs current to the
// user and no protocol write happens.
type VerificationError struct {
	Required *big.Int `json:"required"`
	Current  *big.Int `json:"current"`
	Symbol   string   `json:"symbol"`
	Token    string   `json:"token"`
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("insufficient balance: have %s, need %s %s", e.Current, e.Required, e.Symbol)
}

// Verifier checks group membership rules against on-chain state.
type Verifier struct {
	reader BalanceReader
}

func NewVerifier(reader BalanceReader) *Verifier {
	return &Verifier{reader: reader}
}

// VerifyRule returns nil when the holder satisfies the rule. An unmet
// token or payment gate comes back as *VerificationError; approval rules
// are enforced upstream by the protocol and pass here.
func (v *Verifier) VerifyRule(ctx context.Context, rule *lens.GroupRule, holder string) error {
	if rule == nil {
		return nil
	}

	switch rule.Type {
	case lens.RuleTokenGated:
		required, ok := new(big.Int).SetString(strings.TrimSpace(rule.MinValue), 10)
		if !ok || required.Sign() <= 0 {
			// ERC-721 gates commonly omit minValue; holding one is enough.
			if rule.Standard == lens.StandardERC721 {
				required = big.NewInt(1)
			} else {
				return fmt.Errorf("token rule: bad minValue %q", rule.MinValue)
			}
		}
		current, err := v.reader.BalanceOf(ctx, rule.Token, holder)
		if err != nil {
			return fmt.Errorf("verify token gate: %w", err)
		}
		if current.Cmp(required) < 0 {
			return &VerificationError{
				Required: required,
				Current:  current,
				Symbol:   rule.Symbol,
				Token:    rule.Token,
			}
		}
		return nil

	case lens.RuleSimplePayment:
		required, ok := new(big.Int).SetString(strings.TrimSpace(rule.Amount), 10)
		if !ok || required.Sign() <= 0 {
			return fmt.Errorf("payment rule: bad amount %q", rule.Amount)
		}
		current, err := v.reader.BalanceOf(ctx, rule.Currency, holder)
		if err != nil {
			return fmt.Errorf("verify payment gate: %w", err)
		}
		if current.Cmp(required) < 0 {
			return &VerificationError{
				Required: required,
				Current:  current,
				Symbol:   rule.Symbol,
				Token:    rule.Currency,
			}
		}
		return nil

	case lens.RuleMembershipApproval:
		return nil

	default:
		return fmt.Errorf("unknown rule type %q", rule.Type)
	}
}
