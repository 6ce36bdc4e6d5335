package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// outputAsJSON writes any value as formatted JSON to the command's stdout.
func outputAsJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError prints an error to w with any configured token redacted.
func outputError(w io.Writer, err error) {
	printError(w, "%s", scrubSensitiveData(err.Error()))
}

// scrubSensitiveData removes API and search tokens from messages.
func scrubSensitiveData(msg string) string {
	for _, secret := range []string{
		cfgAPIToken,
		cfgSearchToken,
		os.Getenv("GOODDAY_API_TOKEN"),
		os.Getenv("GOODDAY_SEARCH_BEARER_TOKEN"),
	} {
		if len(secret) >= 4 && strings.Contains(msg, secret) {
			msg = strings.ReplaceAll(msg, secret, "[REDACTED]")
		}
	}
	return msg
}
