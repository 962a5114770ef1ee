// internal/cli/queries.go
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
	"github.com/rovshanmuradov/solana-observer/internal/curve"
	"github.com/rovshanmuradov/solana-observer/internal/delta"
	"github.com/rovshanmuradov/solana-observer/internal/observer"
)

type runFunc = func(ctx context.Context, env *Env, args []string) error

func init() {
	register(Command{Name: "balance", Usage: "balance [address]", Flags: balanceCmd})
	register(Command{Name: "token", Usage: "token [owner] [mint]", Flags: tokenCmd})
	register(Command{Name: "mint", Usage: "mint [mint]", Flags: mintCmd})
	register(Command{Name: "deltas", Usage: "deltas [-limit N] [address] [mint]", Flags: deltasCmd})
	register(Command{Name: "curve", Usage: "curve [-ladder 1,5,10] [mint]", Flags: curveCmd})
	register(Command{Name: "snapshot", Usage: "snapshot [-limit N] [wallet] [mint]", Flags: snapshotCmd})
	register(Command{Name: "default", Usage: "default [wallet|mint <address>]", Flags: defaultCmd})
}

func balanceCmd(_ *flag.FlagSet) runFunc {
	return func(ctx context.Context, env *Env, args []string) error {
		addrs, err := env.resolve(ctx, args, roleWallet)
		if err != nil {
			return err
		}
		bal, err := env.Obs.NativeBalance(ctx, addrs[0])
		if err != nil {
			return err
		}
		return env.print(map[string]any{"address": addrs[0], "balance": bal})
	}
}

func tokenCmd(_ *flag.FlagSet) runFunc {
	return func(ctx context.Context, env *Env, args []string) error {
		addrs, err := env.resolve(ctx, args, roleWallet, roleMint)
		if err != nil {
			return err
		}
		bal, err := env.Obs.TokenBalance(ctx, addrs[0], addrs[1])
		if err != nil {
			return err
		}
		return env.print(map[string]any{"owner": addrs[0], "mint": addrs[1], "balance": bal})
	}
}

func mintCmd(_ *flag.FlagSet) runFunc {
	return func(ctx context.Context, env *Env, args []string) error {
		addrs, err := env.resolve(ctx, args, roleMint)
		if err != nil {
			return err
		}
		info, err := env.Obs.MintInfo(ctx, addrs[0])
		if err != nil {
			return err
		}
		return env.print(info)
	}
}

// partialResult - записи, полученные до ошибки, плюс сама ошибка.
type partialResult[T any] struct {
	Records []T    `json:"records"`
	Partial bool   `json:"partial,omitempty"`
	Error   string `json:"error,omitempty"`
}

func deltasCmd(fs *flag.FlagSet) runFunc {
	limit := fs.Int("limit", 0, "number of recent transactions (0 = configured default)")
	return func(ctx context.Context, env *Env, args []string) error {
		addrs, err := env.resolve(ctx, args, roleWallet, roleMint)
		if err != nil {
			return err
		}
		records, err := env.Obs.RecentDeltas(ctx, addrs[0], addrs[1], *limit)
		return printPartial[delta.Record](env, records, err)
	}
}

func curveCmd(fs *flag.FlagSet) runFunc {
	ladderFlag := fs.String("ladder", "", "comma separated ascending sizes (empty = configured ladder)")
	return func(ctx context.Context, env *Env, args []string) error {
		ladder, err := parseLadder(*ladderFlag)
		if err != nil {
			return err
		}
		addrs, err := env.resolve(ctx, args, roleMint)
		if err != nil {
			return err
		}
		samples, err := env.Obs.SampleCurve(ctx, addrs[0], ladder)
		return printPartial[curve.Sample](env, samples, err)
	}
}

// printPartial печатает непустой частичный результат вместе с ошибкой и
// возвращает ошибку, чтобы код выхода отражал неполноту.
func printPartial[T any](env *Env, items []T, err error) error {
	if err != nil && len(items) == 0 {
		return err
	}
	res := partialResult[T]{Records: items}
	if res.Records == nil {
		res.Records = []T{}
	}
	if err != nil {
		res.Partial = true
		res.Error = err.Error()
	}
	if perr := env.print(res); perr != nil {
		return perr
	}
	return err
}

func parseLadder(s string) ([]decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ladder := make([]decimal.Decimal, 0, len(parts))
	for _, p := range parts {
		d, err := decimal.NewFromString(strings.TrimSpace(p))
		if err != nil {
			return nil, blockchain.ValidationError("parseLadder", err)
		}
		ladder = append(ladder, d)
	}
	return ladder, nil
}

type snapshotPanel struct {
	Value any    `json:"value"`
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

func panelOf[T any](p observer.Panel[T]) snapshotPanel {
	if p.Available() {
		return snapshotPanel{Value: p.Value}
	}
	return snapshotPanel{Error: p.Err.Error(), Kind: blockchain.KindOf(p.Err).String()}
}

func snapshotCmd(fs *flag.FlagSet) runFunc {
	limit := fs.Int("limit", 0, "number of recent transactions (0 = configured default)")
	return func(ctx context.Context, env *Env, args []string) error {
		addrs, err := env.resolve(ctx, args, roleWallet, roleMint)
		if err != nil {
			return err
		}
		snap, err := env.Obs.Snapshot(ctx, addrs[0], addrs[1], *limit)
		if err != nil {
			return err
		}
		return env.print(map[string]any{
			"wallet": snap.Wallet,
			"mint":   snap.Mint,
			"native": panelOf(snap.Native),
			"token":  panelOf(snap.Token),
			"info":   panelOf(snap.Info),
			"deltas": panelOf(snap.Deltas),
			"curve":  panelOf(snap.Curve),
		})
	}
}

func defaultCmd(_ *flag.FlagSet) runFunc {
	return func(ctx context.Context, env *Env, args []string) error {
		switch len(args) {
		case 0:
			wallet, mint, err := env.Obs.DefaultAddresses(ctx, env.Config.DefaultWallet, env.Config.DefaultMint)
			if err != nil {
				return err
			}
			return env.print(map[string]string{"wallet": wallet, "mint": mint})
		case 2:
			key := observer.SettingDefaultWallet
			switch args[0] {
			case "wallet":
			case "mint":
				key = observer.SettingDefaultMint
			default:
				return usageError(errUnknownDefault(args[0]))
			}
			if err := env.Obs.SetDefaultAddress(ctx, key, args[1]); err != nil {
				return err
			}
			return env.print(map[string]string{args[0]: args[1]})
		default:
			return usageError(errDefaultArgs)
		}
	}
}

var errDefaultArgs = errors.New("usage: default [wallet|mint <address>]")

func errUnknownDefault(name string) error {
	return fmt.Errorf("unknown default %q (want wallet or mint)", name)
}
