package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"pcswitch/config"
	"pcswitch/core"
	"pcswitch/logger"

	"github.com/spf13/cobra"
)

const banner = `
 _ __  _ __ _____  ___   _  ___| |__   __ _(_)_ __  ___
| '_ \| '__/ _ \ \/ / | | |/ __| '_ \ / _` + "`" + ` | | '_ \/ __|
| |_) | | | (_) >  <| |_| | (__| | | | (_| | | | | \__ \
| .__/|_|  \___/_/\_\__,  |\___|_| |_|\__,_|_|_| |_|___/
|_|                  |___/
              Simple Proxychains Changer
`

type app struct {
	env      Env
	cfg      config.Configuration
	rewriter *core.Rewriter
	store    *core.Store
	backup   *core.Backup
	checker  core.EgressChecker
	input    *bufio.Reader
}

func (a *app) init(cfg config.Configuration) {
	a.cfg = cfg
	a.rewriter = core.NewRewriter(a.env.Fs, cfg.Paths.ConfigFile)
	a.store = core.NewStore(a.env.Fs, cfg.Paths.CustomList, a.rewriter)
	a.backup = core.NewBackup(a.env.Fs, cfg.Paths.ConfigFile, cfg.BackupFile())
	if cfg.Check.Mode == config.CheckModeNative {
		a.checker = core.NewNativeChecker(a.rewriter, cfg.Check.IPEndpoint, cfg.Check.GeoEndpoint, cfg.Check.Timeout)
	} else {
		a.checker = core.NewChecker(a.env.Runner, core.CheckerOptions{
			ProxyCommand: cfg.Check.ProxyCommand,
			HTTPClient:   cfg.Check.HTTPClient,
			IPEndpoint:   cfg.Check.IPEndpoint,
			GeoEndpoint:  cfg.Check.GeoEndpoint,
			Timeout:      cfg.Check.Timeout,
		})
	}
	a.input = bufio.NewReader(a.env.In)
}

func (a *app) printf(format string, v ...interface{}) {
	fmt.Fprintf(a.env.Out, format, v...)
}

type action int

const (
	actionNone action = iota
	actionTor
	actionChisel
	actionSelect
	actionAdd
	actionList
	actionDelete
	actionBackup
	actionRestore
	actionCheck
)

// pick returns the first requested action in priority order.
func (o *options) pick(cmd *cobra.Command) action {
	switch {
	case o.tor:
		return actionTor
	case o.chisel:
		return actionChisel
	case o.cs:
		return actionSelect
	case cmd.Flags().Changed("add"):
		return actionAdd
	case o.list:
		return actionList
	case o.del:
		return actionDelete
	case o.backup:
		return actionBackup
	case o.restore:
		return actionRestore
	case o.check:
		return actionCheck
	}
	return actionNone
}

func (act action) needsRoot() bool {
	switch act {
	case actionNone, actionList, actionCheck:
		return false
	}
	return true
}

// requireRoot runs before config and log files are touched, so a refused
// command leaves no trace on disk.
func requireRoot(env Env, act action) error {
	if !act.needsRoot() || (env.IsRoot != nil && env.IsRoot()) {
		return nil
	}
	fmt.Fprintf(env.Out, "[x] need root privilege\n")
	return &exitError{code: 1}
}

// dispatch runs the action picked in PersistentPreRunE.
func (a *app) dispatch(cmd *cobra.Command, o *options) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch o.act {
	case actionTor:
		return a.switchPreset(ctx, "TOR", a.cfg.Presets.Tor)
	case actionChisel:
		return a.switchPreset(ctx, "Chisel", a.cfg.Presets.Chisel)
	case actionSelect:
		return a.selectCustom(ctx)
	case actionAdd:
		return a.addCustom(ctx, o.add)
	case actionList:
		a.printf("%s\n", banner)
		_, err := a.listCustom()
		return err
	case actionDelete:
		return a.deleteCustom()
	case actionBackup:
		return a.backupConfig()
	case actionRestore:
		return a.restoreConfig()
	case actionCheck:
		return a.runCheck(ctx)
	}

	flags := cmd.Flags()
	if flags.NFlag() == 0 {
		return cmd.Help()
	}
	// Exits 0 like the rest of the informational paths.
	logger.Warn("No action flag matched: %v", flags.Args())
	a.printf("[x] Invalid option.\n")
	return nil
}

func (a *app) runCheck(ctx context.Context) error {
	info, err := a.checker.Check(ctx)
	if err != nil {
		return fatalf("%v", err)
	}
	core.RenderTable(a.env.Out, info)
	return nil
}

func (a *app) switchPreset(ctx context.Context, name, proxyLine string) error {
	a.printf("%s\n", banner)
	if err := a.rewriter.SuppressOthers(); err != nil {
		return fatalf("%v", err)
	}
	if err := a.rewriter.Enable(proxyLine); err != nil {
		return fatalf("failed to write to config file: %v", err)
	}
	logger.Info("Switched %s proxy: %q", name, proxyLine)
	a.printf("[+] Switched %s Proxy: %s\n", name, proxyLine)
	return a.runCheck(ctx)
}

// listCustom prints the numbered list. A missing list is a normal state and
// is reported with found == false.
func (a *app) listCustom() (found bool, err error) {
	err = a.store.Render(a.env.Out)
	if errors.Is(err, core.ErrNoCustomProxies) {
		a.printf("[x] No custom proxies found.\n")
		return false, nil
	}
	if err != nil {
		return false, fatalf("failed to read custom list: %v", err)
	}
	return true, nil
}

func (a *app) promptIndex(question string) (int, bool, error) {
	n, err := core.PromptIndex(a.input, a.env.Out, question)
	if errors.Is(err, core.ErrInvalidInput) {
		logger.Info("Rejected prompt answer: %v", err)
		a.printf("[x] Invalid input.\n")
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fatalf("%v", err)
	}
	return n, true, nil
}

// reportStoreError turns informational store outcomes into messages and
// everything else into a fatal error.
func (a *app) reportStoreError(err error) error {
	switch {
	case errors.Is(err, core.ErrNoCustomProxies):
		a.printf("[x] No custom proxies found.\n")
		return nil
	case errors.Is(err, core.ErrInvalidSelection):
		logger.Info("%v", err)
		a.printf("[x] Invalid selection.\n")
		return nil
	default:
		return fatalf("%v", err)
	}
}

func (a *app) selectCustom(ctx context.Context) error {
	a.printf("%s\n", banner)
	if found, err := a.listCustom(); !found || err != nil {
		return err
	}
	index, ok, err := a.promptIndex("Enter the number of the proxy to use:")
	if err != nil {
		return err
	}
	if ok {
		proxy, err := a.store.Select(index)
		if err != nil {
			if err := a.reportStoreError(err); err != nil {
				return err
			}
		} else {
			a.printf("[+] Switched Custom Proxy: %s\n", proxy)
		}
	}
	return a.runCheck(ctx)
}

func (a *app) addCustom(ctx context.Context, raw string) error {
	proxy := strings.TrimSpace(raw)
	if proxy == "" {
		a.printf("[x] Proxy string must not be empty.\n")
		return nil
	}
	a.printf("%s\n", banner)
	if err := a.rewriter.SuppressOthers(); err != nil {
		return fatalf("%v", err)
	}
	if err := a.store.Add(proxy); err != nil {
		return fatalf("%v", err)
	}
	a.printf("[+] Custom proxy added: %s\n", proxy)
	return a.runCheck(ctx)
}

func (a *app) deleteCustom() error {
	if found, err := a.listCustom(); !found || err != nil {
		return err
	}
	index, ok, err := a.promptIndex("Enter the number of the proxy to delete:")
	if err != nil || !ok {
		return err
	}
	proxy, err := a.store.Delete(index)
	if err != nil {
		return a.reportStoreError(err)
	}
	a.printf("[+] Custom proxy deleted: %s\n", proxy)
	return nil
}

func (a *app) backupConfig() error {
	if err := a.backup.Backup(); err != nil {
		return fatalf("%v", err)
	}
	a.printf("[+] Backup done.\n")
	return nil
}

func (a *app) restoreConfig() error {
	err := a.backup.Restore()
	if errors.Is(err, core.ErrBackupNotFound) {
		a.printf("[x] Backup not found.\n")
		return nil
	}
	if err != nil {
		return fatalf("%v", err)
	}
	a.printf("[+] Config restored.\n")
	return nil
}
