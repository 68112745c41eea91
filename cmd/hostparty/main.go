// Demo host: wires a registry with two sample services, walks a live
// subscription across a source switch, and applies a permission closure.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/hostparty/grant"
	"github.com/delaneyj/hostparty/live"
	"github.com/delaneyj/hostparty/registry"
	"github.com/delaneyj/hostparty/rpc"
	"github.com/delaneyj/hostparty/stream"
)

const verboseKey = "verbose"

func main() {
	cmd := &cli.Command{
		Name:  "hostparty",
		Usage: "Host versioned services with live-value subscriptions",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  verboseKey,
				Usage: "Log at debug level",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "demo",
				Usage:  "Run a short watch-and-grant session",
				Action: runDemo,
			},
			{
				Name:   "services",
				Usage:  "Print the registry after activation",
				Action: runServices,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger(cmd *cli.Command) *slog.Logger {
	level := slog.LevelInfo
	if cmd.Bool(verboseKey) {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildHost registers and activates the sample services.
func buildHost(logger *slog.Logger) (*registry.Registry, error) {
	r := registry.New(logger, rpc.NopHandlers{}, registry.ServiceOptions{})
	if err := r.Register(accountsDescriptor()); err != nil {
		return nil, err
	}
	if err := r.Register(appsDescriptor()); err != nil {
		return nil, err
	}
	err := r.RequestBatch([]registry.BatchRequest{
		{ID: accountsID, AcceptableVersions: []registry.VersionRequest{registry.Minimum(1, 0)}},
		{ID: appsID, AcceptableVersions: []registry.VersionRequest{registry.Minimum(1, 0)}},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func runDemo(ctx context.Context, cmd *cli.Command) error {
	logger := newLogger(cmd)
	r, err := buildHost(logger)
	if err != nil {
		return err
	}

	instance, err := r.GetDependency(appsID, registry.Minimum(1, 0))
	if err != nil {
		return err
	}
	apps := instance.(*appsService)
	accounts := apps.accounts

	accounts.data.Set("alice", "Alice")
	accounts.data.Set("bob", "Bob")

	// Watch whichever account is selected; switching the selector
	// re-points the subscription without the consumer noticing.
	selected := live.NewCell("alice")
	watch := stream.ChainMap(selected.Subscribe(), func(id string) stream.Stream[live.Entry[string]] {
		return accounts.data.SubscribeKey(id)
	})
	defer watch.Stop()

	pullCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	entry, err := watch.Next(pullCtx)
	if err != nil {
		return err
	}
	fmt.Printf("watching %q: %v\n", selected.Get(), entry.Value)

	selected.Set("bob")
	entry, err = watch.Next(pullCtx)
	if err != nil {
		return err
	}
	fmt.Printf("watching %q: %v\n", selected.Get(), entry.Value)

	accounts.data.Set("bob", "Bob the Builder")
	entry, err = watch.Next(pullCtx)
	if err != nil {
		return err
	}
	fmt.Printf("watching %q: %v\n", selected.Get(), entry.Value)

	// Admit the calendar app through its entry point and show the ACL
	// the closure produced.
	acl := rpc.NewAddressMap()
	unknown := grant.Apply(
		[]string{"accounts/readonly", "nonexistent"},
		apps.permissions,
		acl,
		&grant.Context{
			Caller:     rpc.Addr("apps", "calendar"),
			EntryPoint: rpc.Addr("org", "example", "apps", "entry"),
		},
		logger,
	)

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{"address", "policy"})
	for _, row := range apps.aclRows(acl) {
		tbl.Append(row)
	}
	tbl.Render()
	fmt.Printf("%s addresses gated, %d unknown permission(s)\n",
		humanize.Comma(int64(acl.Len())), len(unknown))
	return nil
}

func runServices(ctx context.Context, cmd *cli.Command) error {
	logger := newLogger(cmd)
	r, err := buildHost(logger)
	if err != nil {
		return err
	}

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{"service", "versions", "active", "constructed"})
	for _, status := range r.Services() {
		versions := make([]string, 0, len(status.Versions))
		for _, v := range status.Versions {
			versions = append(versions, v.String())
		}
		active := make([]string, 0, len(status.Active))
		for _, v := range status.Active {
			active = append(active, v.String())
		}
		tbl.Append([]string{
			status.ID.String(),
			fmt.Sprintf("%v", versions),
			fmt.Sprintf("%v", active),
			fmt.Sprintf("%t", status.Constructed),
		})
	}
	tbl.Render()
	return nil
}
