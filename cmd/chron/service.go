package main

import (
	"fmt"
	"os"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/flemzord/chron/pkg/app"
)

// program adapts the daemon to the service manager's lifecycle.
type program struct {
	chronfile string
	errCh     chan error
}

func (p *program) Start(_ service.Service) error {
	go func() {
		p.errCh <- app.Run(app.RunParams{ConfigPath: p.chronfile})
	}()
	return nil
}

func (p *program) Stop(_ service.Service) error {
	return nil
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage chron as a system service",
	}

	for _, action := range []string{"install", "uninstall", "start", "stop", "restart"} {
		cmd.AddCommand(serviceActionCmd(action))
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run <chronfile.toml>",
		Short: "Run under the service manager (invoked by the manager itself)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			prg := &program{chronfile: args[0], errCh: make(chan error, 1)}
			svc, err := newService(prg, args[0])
			if err != nil {
				return err
			}
			return svc.Run()
		},
	})

	return cmd
}

func serviceActionCmd(action string) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <chronfile.toml>", action),
		Short: fmt.Sprintf("%s the chron system service", action),
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			svc, err := newService(&program{chronfile: args[0]}, args[0])
			if err != nil {
				return err
			}
			if err := service.Control(svc, action); err != nil {
				return fmt.Errorf("service %s: %w", action, err)
			}
			fmt.Printf("Service %s: done\n", action)
			return nil
		},
	}
}

func newService(prg *program, chronfile string) (service.Service, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return service.New(prg, &service.Config{
		Name:        "chron",
		DisplayName: "chron job supervisor",
		Description: "Supervises startup and scheduled jobs from a chronfile.",
		Executable:  exe,
		Arguments:   []string{"service", "run", chronfile},
	})
}
