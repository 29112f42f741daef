// Package commands is the command line of the scheduled batches. Every
// subcommand runs one job through batch.Runner.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nurpe/sales-backoffice/internal/batch"
	"github.com/nurpe/sales-backoffice/internal/config"
	"github.com/nurpe/sales-backoffice/internal/dates"
	"github.com/nurpe/sales-backoffice/internal/model"
	"github.com/nurpe/sales-backoffice/internal/notify"
	"github.com/nurpe/sales-backoffice/internal/repository"
	"github.com/nurpe/sales-backoffice/internal/service"
)

// App holds what the batches need. It is built once per process.
type App struct {
	Username  string
	Runner    *batch.Runner
	Contracts *service.ContractService
	Requests  *service.MonthlyRequestService
	Vacations *service.PaidVacationService
	Costs     *service.CostService
	Statuses  *service.WorkingStatusService
	Birthdays *service.BirthdayService
}

// NewApp wires the services. Batches never render documents, so the request
// service runs without generators.
func NewApp(cfg *config.Config, store *repository.Store, log zerolog.Logger) *App {
	notifier := notify.NewNotifier(store, notify.NewLogSender(log), log)
	return &App{
		Username:  cfg.Batch.Username,
		Runner:    batch.NewRunner(store, log),
		Contracts: service.NewContractService(store, cfg.Contract, log),
		Requests:  service.NewMonthlyRequestService(store, cfg.Request, nil, nil, log),
		Vacations: service.NewPaidVacationService(store, cfg.PaidVacation, log),
		Costs:     service.NewCostService(store, log),
		Statuses:  service.NewWorkingStatusService(store, log),
		Birthdays: service.NewBirthdayService(store, notifier, log),
	}
}

// Loader opens the application lazily so that --help works without a database.
type Loader func() (*App, error)

type options struct {
	date     string
	username string
}

// run carries the resolved flags of one invocation.
type run struct {
	app   *App
	date  time.Time
	actor model.Principal
}

func NewRootCommand(load Loader) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "sales-batch",
		Short:         "Scheduled batches of the sales back office",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.date, "date", "", "execution date as YYYY-MM-DD (default today)")
	root.PersistentFlags().StringVar(&opts.username, "username", "", "user recorded on created rows (default BATCH_USERNAME)")

	for _, j := range jobs {
		root.AddCommand(newJobCommand(j, opts, load))
	}
	return root
}

func newJobCommand(j job, opts *options, load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   j.name,
		Short: j.title,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			date := dates.Today()
			if opts.date != "" {
				parsed, err := dates.Parse(opts.date)
				if err != nil {
					return fmt.Errorf("--date: %w", err)
				}
				date = parsed
			}
			app, err := load()
			if err != nil {
				return err
			}
			username := opts.username
			if username == "" {
				username = app.Username
			}
			r := run{app: app, date: date, actor: model.SystemPrincipal(username)}
			return app.Runner.Run(cmd.Context(), j.name, j.title, func(ctx context.Context) (string, error) {
				return j.do(ctx, r)
			})
		},
	}
}
