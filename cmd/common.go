package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grovetools/streamer-mode/cli"
	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/pkg/protection"
)

// session bundles the settings store and state most commands work with.
type session struct {
	store  *config.FileStore
	root   string
	state  *protection.State
	logger *logrus.Entry
	json   bool
}

func openSession(cmd *cobra.Command) (*session, error) {
	logger := cli.GetLogger(cmd)
	store, root, err := cli.OpenStore(cmd)
	if err != nil {
		return nil, err
	}
	return &session{
		store:  store,
		root:   root,
		state:  protection.New(store, logger),
		logger: logger,
		json:   cli.GetOptions(cmd).JSONOutput,
	}, nil
}

// addScopeFlag registers --scope on cmd.
func addScopeFlag(cmd *cobra.Command, usage string) {
	cmd.Flags().StringP("scope", "s", "", usage)
}

// scopeFlag returns the --scope value, or fallback when it is unset.
func scopeFlag(cmd *cobra.Command, fallback config.Scope) (config.Scope, error) {
	value, _ := cmd.Flags().GetString("scope")
	if value == "" {
		return fallback, nil
	}
	return config.ParseScope(value)
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output to JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func printJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
