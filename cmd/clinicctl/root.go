package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clinic-reservation-backend/config"
	"clinic-reservation-backend/internal/app"
	"clinic-reservation-backend/internal/remote"
	"clinic-reservation-backend/internal/reservation"
	"clinic-reservation-backend/internal/schedule"
)

// session is what every subcommand works with once flags are parsed.
type session struct {
	cfg         *config.Config
	logger      *zap.Logger
	client      *remote.Client
	coordinator *reservation.Coordinator
	out         io.Writer
	now         func() time.Time
}

type rootFlags struct {
	configPath string
	apiURL     string
	verbose    bool
}

func newRootCmd(out io.Writer, now func() time.Time) *cobra.Command {
	flags := &rootFlags{}
	s := &session{out: out, now: now}

	root := &cobra.Command{
		Use:           "clinicctl",
		Short:         "Manage weekly clinic reservations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.open(flags)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if s.logger != nil {
				_ = s.logger.Sync()
			}
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", envOr("CONFIG_PATH", "./config/config.yaml"), "path to the config file")
	root.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "server base URL, overrides client.base_url")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log requests and sync activity")

	root.AddCommand(
		newScheduleCmd(s),
		newPlaceCmd(s),
		newCancelCmd(s),
		newStudentsCmd(s),
		newBookingsCmd(s),
		newClinicsCmd(s),
		newFlagCmd(s),
		newAttendanceCmd(s),
		newCountdownCmd(s),
		newResetNoShowCmd(s),
		newResetWeekCmd(s),
		newHealthCmd(s),
	)
	return root
}

func (s *session) open(flags *rootFlags) error {
	cfg, err := config.Load(flags.configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		return fmt.Errorf("failed to load configuration from %s: %w", flags.configPath, err)
	}
	if flags.apiURL != "" {
		cfg.Client.BaseURL = flags.apiURL
	}

	s.logger = zap.NewNop()
	if flags.verbose {
		s.logger = app.NewLogger(cfg.Env)
	}

	days, err := cfg.Reservation.GridDays()
	if err != nil {
		return err
	}
	loc := cfg.Reservation.Location()
	now := s.now

	s.cfg = cfg
	s.client = remote.NewClient(cfg.Client, s.logger)
	s.coordinator = reservation.NewCoordinator(
		s.client,
		schedule.NewStore(schedule.NewWeeklySchedule(days, cfg.Reservation.Times)),
		reservation.NewDirectory(),
		reservation.Options{
			NoShowThreshold:  cfg.Reservation.NoShowThreshold,
			ResyncOnConflict: cfg.Reservation.ResyncOnConflict,
			Now:              func() time.Time { return now().In(loc) },
			Logger:           s.logger,
		},
	)
	return nil
}

// load pulls the grid and the student directory.
func (s *session) load(ctx context.Context) error {
	if err := s.coordinator.Refresh(ctx); err != nil {
		return err
	}
	return s.coordinator.RefreshStudents(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
