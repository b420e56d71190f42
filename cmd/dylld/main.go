// dylld — ChRIS плагин, который динамически строит дерево
// вычислений Leg-Length-Discrepancy для каждого входного файла.
//
// Использование:
//
//	dylld [flags] INPUTDIR OUTPUTDIR
//	dylld [flags] <command>
//
// Команды:
//
//	pipelines  Pipelines на CUBE
//	plugins    Плагины на CUBE
//	node       Снимок plugin instance
//	workflow   Plugin instances workflow
//	recipe     Этапы рецепта
//	treelog    Сводка treeLog.json
//	events     События веток из RabbitMQ
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/FNNDSC/pl-dylld/internal/cli"
	"github.com/FNNDSC/pl-dylld/internal/config"
	"github.com/FNNDSC/pl-dylld/internal/cube"
	"github.com/FNNDSC/pl-dylld/internal/mq"
	"github.com/FNNDSC/pl-dylld/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	cfg := config.Default()
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "dylld [flags] INPUTDIR OUTPUTDIR",
		Short:         "Dynamically grow Leg-Length-Discrepancy compute trees on ChRIS",
		Version:       version,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ApplyEnv(cmd.Root().PersistentFlags(), os.Getenv); err != nil {
				return err
			}
			setupLogger(cfg.Verbosity)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.InputDir, cfg.OutputDir = args[0], args[1]
			preamble(cmd.Root().PersistentFlags())
			return grow(cmd.Context(), cfg)
		},
	}

	cfg.BindFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (inspection commands)")

	clientFn := func() (cli.Inspector, error) {
		client, err := cube.New(cubeConfig(cfg), telemetry.FromContext(context.Background()))
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }
	connFn := func() (*mq.Connection, error) {
		if cfg.AMQPURL == "" {
			return nil, fmt.Errorf("--amqp-url (or RABBITMQ_URL) is required")
		}
		return mq.NewConnection(cfg.AMQPURL, telemetry.FromContext(context.Background()))
	}

	rootCmd.AddCommand(
		cli.NewPipelinesCmd(clientFn, outputFn),
		cli.NewPluginsCmd(clientFn, outputFn),
		cli.NewNodeCmd(clientFn, outputFn),
		cli.NewWorkflowCmd(clientFn, outputFn),
		cli.NewRecipeCmd(outputFn),
		cli.NewTreeLogCmd(outputFn),
		cli.NewEventsCmd(connFn, outputFn),
	)

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}

// setupLogger: LOG_LEVEL имеет приоритет над --verbosity.
func setupLogger(verbosity int) {
	level := telemetry.VerbosityLevel(verbosity)
	if os.Getenv("LOG_LEVEL") != "" {
		level = telemetry.LogLevel()
	}
	telemetry.SetupLoggerWithLevel(os.Stderr, level)
}

// preamble логирует параметры запуска (кроме пароля).
func preamble(fs *pflag.FlagSet) {
	logger := telemetry.FromContext(context.Background())
	fs.VisitAll(func(f *pflag.Flag) {
		value := f.Value.String()
		if f.Name == "CUBEpassword" && value != "" {
			value = "***"
		}
		logger.Info("plugin argument", "name", f.Name, "value", value)
	})
}
