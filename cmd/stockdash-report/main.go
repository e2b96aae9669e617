package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bobmcallan/stockdash/internal/app"
	"github.com/bobmcallan/stockdash/internal/common"
	"github.com/bobmcallan/stockdash/internal/config"
	"github.com/bobmcallan/stockdash/internal/dashboard"
	"github.com/bobmcallan/stockdash/internal/models"
	"github.com/bobmcallan/stockdash/internal/terminal"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("STOCKDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "stockdash-report <symbol>",
		Short:         "Print a ticker's metrics, ratios, statement, price range and news",
		Version:       config.CurrentBuild().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires exactly 1 ticker symbol argument")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd.Context(), v, args[0], stdout)
			if err != nil {
				fmt.Fprintln(stderr, err)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.String("statement", string(models.BalanceSheet), "statement to show: balance_sheet, income_statement or cash_flow")
	flags.String("timeframe", string(models.DefaultTimeframe), "price history range, e.g. 5d, 1mo, 1y, max")
	flags.StringSlice("config", nil, "configuration file path (repeatable)")
	flags.String("source", "", "market data source override: yahoo or memory")
	flags.String("log-level", "warn", "log level written to stderr")
	flags.Bool("no-color", false, "disable coloured rows")
	_ = v.BindPFlags(flags)

	return cmd
}

func run(ctx context.Context, v *viper.Viper, symbol string, out io.Writer) error {
	statement, err := models.ParseStatement(v.GetString("statement"))
	if err != nil {
		return err
	}
	timeframe, err := models.ParseTimeframe(v.GetString("timeframe"))
	if err != nil {
		return err
	}

	cfg, err := config.LoadFromFiles(v.GetStringSlice("config")...)
	if err != nil {
		return err
	}
	if source := v.GetString("source"); source != "" {
		cfg.Provider.Source = source
	}
	if issues := cfg.Validate(); len(issues) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(issues, "; "))
	}

	logger := common.NewLoggerWithOutput(v.GetString("log-level"), os.Stderr)

	application, err := app.New(cfg, logger, app.Headless())
	if err != nil {
		return err
	}
	defer application.Close()

	state := dashboard.NewState(symbol)
	state.Statement = statement
	state.Timeframe = timeframe

	view, err := application.Dashboard.Render(ctx, state)
	if err != nil {
		logger.Debug().Err(err).Msg("render failed")
		return errors.New(dashboard.UserMessage(err))
	}

	return terminal.Render(out, view, terminal.Options{Color: !v.GetBool("no-color")})
}
