package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"studymate-backend/internal/ollama"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Reports whether Ollama is reachable and which model serves each category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if a.client.IsServiceAvailable(cmd.Context()) {
				fmt.Fprintf(out, "✓ Ollama reachable at %s\n", a.cfg.OllamaBaseURL)
			} else {
				fmt.Fprintf(out, "✗ Ollama not reachable at %s\n", a.cfg.OllamaBaseURL)
			}

			for _, c := range ollama.Categories {
				fmt.Fprintf(out, "  %-9s %s\n", c.String()+":", a.settings.ModelFor(c))
			}
			return nil
		},
	}
}
