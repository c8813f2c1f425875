package app

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bpmlabs/bpmclient/internal/client"
	"github.com/bpmlabs/bpmclient/internal/domain"
	"github.com/bpmlabs/bpmclient/internal/platform/bpm"
)

// newClient builds the controller from the wired dependencies.
func (a *App) newClient(deps *Dependencies) *client.Client {
	return client.New(client.Options{
		Bridge:   deps.Bridge,
		Source:   deps.Backend,
		Bets:     deps.Backend,
		Cache:    deps.Cache,
		Sink:     deps.Sink,
		Notifier: deps.Notifier,
		Logger:   a.base,
	})
}

// MarketsMode fetches and renders the market list once, then exits.
func (a *App) MarketsMode(ctx context.Context, deps *Dependencies) error {
	cli := a.newClient(deps)
	defer cli.Close()

	cli.Init(ctx)
	return nil
}

// InteractiveMode runs the controller under a command loop. Each command
// dispatches one controller operation.
func (a *App) InteractiveMode(ctx context.Context, deps *Dependencies) error {
	cli := a.newClient(deps)
	defer cli.Close()

	cli.Init(ctx)
	return a.commandLoop(ctx, cli)
}

// WatchMode is InteractiveMode plus the live market stream: pushed updates
// are applied to the in-memory list and re-rendered as they arrive.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	cli := a.newClient(deps)
	defer cli.Close()

	cli.Init(ctx)

	stream := bpm.NewStream(a.cfg.Backend.WsURL)
	stream.OnMarketUpdate(cli.ApplyMarketUpdate)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := stream.Connect(ctx); err != nil {
			return fmt.Errorf("app: market stream: %w", err)
		}
		if err := stream.Subscribe(ctx); err != nil {
			return fmt.Errorf("app: market stream: %w", err)
		}
		<-ctx.Done()
		return stream.Close()
	})

	g.Go(func() error {
		defer stream.Close()
		return a.commandLoop(ctx, cli)
	})

	return g.Wait()
}

// BetMode connects the wallet and submits one scripted bet, then exits.
func (a *App) BetMode(ctx context.Context, deps *Dependencies) error {
	if a.bet.MarketID <= 0 || a.bet.Amount <= 0 {
		return fmt.Errorf("app: bet mode needs -market and -amount")
	}
	outcome := domain.Outcome(strings.ToLower(a.bet.Outcome))
	if outcome != domain.OutcomeYes && outcome != domain.OutcomeNo {
		return fmt.Errorf("app: bet mode needs -outcome yes|no, got %q", a.bet.Outcome)
	}

	cli := a.newClient(deps)
	defer cli.Close()

	cli.Init(ctx)

	if err := cli.ConnectWallet(ctx); err != nil {
		return fmt.Errorf("app: connect wallet: %w", err)
	}

	cli.OpenBetModal(a.bet.MarketID, outcome)
	if _, ok := cli.Selected(); !ok {
		return fmt.Errorf("app: market %d: %w", a.bet.MarketID, domain.ErrNotFound)
	}

	cli.SetAmount(a.bet.Amount)
	if err := cli.SubmitBet(ctx, outcome); err != nil {
		return fmt.Errorf("app: submit bet: %w", err)
	}
	return nil
}

// commandLoop reads user commands from stdin until quit or context
// cancellation.
func (a *App) commandLoop(ctx context.Context, cli *client.Client) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Println(`Commands: connect, markets, bet <id> [yes|no], amount <n>, submit [yes|no], close, balance, help, quit`)

	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := a.dispatch(ctx, cli, line); quit {
				return nil
			}
		}
	}
}

// dispatch runs one command line against the controller. It returns true when
// the loop should exit.
func (a *App) dispatch(ctx context.Context, cli *client.Client, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	cmd, args := fields[0], fields[1:]
	switch strings.ToLower(cmd) {
	case "quit", "exit":
		return true

	case "help":
		fmt.Println(`Commands: connect, markets, bet <id> [yes|no], amount <n>, submit [yes|no], close, balance, help, quit`)

	case "connect":
		_ = cli.ConnectWallet(ctx)

	case "markets", "reload":
		cli.LoadMarkets(ctx)

	case "balance":
		cli.RefreshWallet(ctx)

	case "bet":
		if len(args) < 1 {
			fmt.Println("usage: bet <market-id> [yes|no]")
			return false
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fmt.Println("usage: bet <market-id> [yes|no]")
			return false
		}
		outcome := domain.OutcomeYes
		if len(args) > 1 && strings.EqualFold(args[1], "no") {
			outcome = domain.OutcomeNo
		}
		cli.PlaceBet(ctx, id, outcome)

	case "amount":
		if len(args) < 1 {
			fmt.Println("usage: amount <n>")
			return false
		}
		amount, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			fmt.Println("usage: amount <n>")
			return false
		}
		cli.SetAmount(amount)

	case "submit":
		outcome := domain.OutcomeYes
		if len(args) > 0 && strings.EqualFold(args[0], "no") {
			outcome = domain.OutcomeNo
		}
		_ = cli.SubmitBet(ctx, outcome)

	case "close":
		cli.CloseBetModal()

	default:
		a.logger.Debug("unknown command", slog.String("command", cmd))
		fmt.Printf("unknown command %q, try help\n", cmd)
	}
	return false
}
