// internal/cli/commands.go
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/api"
	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
	"github.com/rovshanmuradov/solana-observer/internal/config"
	"github.com/rovshanmuradov/solana-observer/internal/export"
	"github.com/rovshanmuradov/solana-observer/internal/ledger"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
)

// Observer - операции фасада, которые использует CLI.
type Observer interface {
	api.Observer
	DefaultAddresses(ctx context.Context, configWallet, configMint string) (wallet, mint string, err error)
	SetDefaultAddress(ctx context.Context, key, address string) error
}

// Importer - двухшаговый импорт журнала.
type Importer interface {
	ImportCSV(r io.Reader) (*ledger.StagedImport, error)
	ConfirmImport(ctx context.Context, id string) ([]*models.Earning, error)
	DiscardImport(id string) error
}

// Env - все, что нужно командам.
type Env struct {
	Obs      Observer
	Ledger   Importer
	Exporter *export.EarningsExporter
	Config   *config.Config
	Logger   *zap.Logger
	Out      io.Writer
	In       io.Reader
	Serve    func(ctx context.Context, addr string) error
}

// Command - подкоманда CLI.
type Command struct {
	Name  string
	Usage string
	Flags func(fs *flag.FlagSet) func(ctx context.Context, env *Env, args []string) error
}

var registry = map[string]Command{}

func register(c Command) {
	registry[c.Name] = c
}

// Run разбирает подкоманду и ее флаги и выполняет ее.
func Run(ctx context.Context, env *Env, args []string) error {
	if len(args) == 0 {
		return usageError(errors.New("no command given"))
	}
	cmd, ok := registry[args[0]]
	if !ok {
		return usageError(fmt.Errorf("unknown command %q", args[0]))
	}

	fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	run := cmd.Flags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return usageError(fmt.Errorf("%s: %w (usage: %s)", cmd.Name, err, cmd.Usage))
	}
	return run(ctx, env, fs.Args())
}

// Usage возвращает список команд для справки.
func Usage() string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Usage: observer [-config path] <command> [flags] [args]\n\nCommands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s\n", registry[name].Usage)
	}
	return b.String()
}

func usageError(err error) error {
	return blockchain.ValidationError("cli", err)
}

// ExitCode: 2 - ошибка ввода, 3 - не найдено, 1 - остальное.
func ExitCode(err error) int {
	switch blockchain.KindOf(err) {
	case blockchain.KindValidation:
		return 2
	case blockchain.KindNotFound:
		return 3
	default:
		return 1
	}
}

// print пишет значение в Out как JSON с отступами.
func (e *Env) print(v any) error {
	enc := sonic.ConfigStd.NewEncoder(e.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type role string

const (
	roleWallet role = "wallet"
	roleMint   role = "mint"
)

// resolve заполняет адреса из позиционных аргументов, затем из настроек
// по умолчанию (settings журнала, потом конфигурация).
func (e *Env) resolve(ctx context.Context, args []string, roles ...role) ([]string, error) {
	if len(args) > len(roles) {
		return nil, usageError(fmt.Errorf("unexpected arguments: %s", strings.Join(args[len(roles):], " ")))
	}
	out := make([]string, len(roles))
	copy(out, args)
	if len(args) == len(roles) {
		return out, nil
	}

	wallet, mint, err := e.Obs.DefaultAddresses(ctx, e.Config.DefaultWallet, e.Config.DefaultMint)
	if err != nil {
		return nil, err
	}
	for i := len(args); i < len(roles); i++ {
		switch roles[i] {
		case roleWallet:
			out[i] = wallet
		case roleMint:
			out[i] = mint
		}
		if out[i] == "" {
			return nil, usageError(fmt.Errorf("no %s given and no default configured", roles[i]))
		}
	}
	return out, nil
}
